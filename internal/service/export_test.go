package service

// HashPassword открывает hashPassword для внешних тестов пакета.
var HashPassword = hashPassword
