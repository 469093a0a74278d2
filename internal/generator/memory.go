package generator

import "novel-stella/internal/ai"

// MemoryWindow оставляет самые свежие главы, суммарно не больше limit токенов.
// Порядок сохраняется хронологический. Если самая новая глава одна больше
// limit, от нее остается конец длиной limit токенов.
func MemoryWindow(chapters []string, counter *ai.TokenCounter, limit int) []string {
	if len(chapters) == 0 {
		return nil
	}
	start := len(chapters) - 1
	used := counter.Count(chapters[start])
	if limit > 0 && used > limit {
		return []string{counter.Tail(chapters[start], limit)}
	}
	for start > 0 {
		next := counter.Count(chapters[start-1])
		if limit > 0 && used+next > limit {
			break
		}
		used += next
		start--
	}
	out := make([]string, len(chapters)-start)
	copy(out, chapters[start:])
	return out
}
