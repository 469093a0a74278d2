package generator

// Тексты промптов и few-shot примеров. Ответы примеров отдаются модели как есть,
// поэтому форматирование строк (Title:, Genre: ...) важно для парсеров.

const elementsSystemPrompt = "You are an expert in novel settings. Create detailed settings for a novel based on the user's input. Follow the structure shown in the examples."

type fewShot struct {
	Input  string
	Answer string
}

var elementsExampleEN = fewShot{
	Input: "Create a medieval fantasy novel setting.",
	Answer: `Title: Hearts of Stone
Genre: Medieval Romance Fantasy
Theme: Love Against the Odds, Courage, and Redemption
Tone: Poignant, Enchanting, and Tense
Setting: The Kingdom of Eldoria is a vibrant realm characterized by vast plains, dense enchanted forests, and majestic castles. It is a land ruled by a feudal system where knights uphold honor and courage, and mythical creatures such as fairies, elves, and dragons inhabit hidden corners of the world. The kingdom stands on the brink of war, with political tensions and old rivalries threatening the fragile peace.
Characters:
Lady Isolde of Thornridge: A noblewoman with a strong will, torn between duty to her family and a desire for true love.
Sir Cedric the Brave: A knight burdened by past sorrows, struggling with his growing feelings for Isolde.
Elara the Sorceress: A mystical fae who guides Isolde and Cedric on an emotional journey.`,
}

var elementsExampleKO = fewShot{
	Input: "중세 시대의 판타지 소설 설정을 만들어 주세요.",
	Answer: `Title: 돌의 마음
Genre: 중세 로맨스 판타지
Theme: 역경을 이겨낸 사랑, 용기, 그리고 구원
Tone: 가슴 아프고, 매혹적이며, 긴장감 있는
Setting: 엘도리아 왕국은 광활한 초원, 울창한 마법의 숲, 그리고 위엄 있는 성들이 특징인 생동감 넘치는 영역입니다. 이곳은 마법과 신화적 생명체들이 숨쉬는 세계로, 전쟁의 위기 속에서 정치적 긴장감이 도사리고 있습니다.
Characters:
레이디 이졸드 오브 쏜리지: 강한 의지를 가진 귀족 여성, 가족과 사랑 사이에서 갈등함.
용감한 세드릭 경: 과거의 괴로움에 시달리며 이졸드를 사랑하게 되는 기사.
마법사 엘라라: 주인공들을 감정적 여정으로 이끄는 신비로운 요정.`,
}

const prologueSystemPrompt = `You are an expert in fiction.
You create only the prologue for your novel using the setting(Title, Genre, Theme, Tone, Setting, Characters) you've been given.
Prologue is a monologue or dialog that serves to set the scene and set the tone before the main story begins.
The novel is told from the point of view of one of the Characters.
Just tell me the answer to the input. Don't give interactive answers.
If there are no setting(Title, Genre, Theme, Tone, Setting, Characters) in the input, give a blank answer.`

var prologueExample = fewShot{
	Input: `"title": "The Royal Heart's Resolve",
"genre": "Medieval Romance",
"theme": "Love, Courage, and Resilience",
"tone": "Romantic, Heartwarming, and Inspirational",
"setting": "Kingdom of Avaloria, Medieval Europe",
"characters": "Princess Elara: A kind-hearted and strong-willed princess..."`,
	Answer: `Prologue:
The grand ballroom of the Ashford Manor was ablaze with candlelight...`,
}

// stages - описания пяти стадий сюжета, по 6 глав на стадию.
var stages = [...]string{
	"writes Expositions that introduce the characters and setting of your novel and where events take place.",
	"writes Development which a series of events leads to conflict between characters.",
	"writes crises, where a reversal of events occurs, a new situation emerges, and the protagonist ultimately fails.",
	"writes a climax in which a solution to a new situation is realized, the protagonist implements it, and the conflict shifts.",
	"writes endings where the protagonist wraps up the case, all conflicts are resolved, and the story ends.",
}

var summaryExamples = []fewShot{
	{
		Input:  "Write a concise summary of the first chapter where the protagonist meets a mysterious informant.",
		Answer: `James Worthington prowled the fog-drenched streets of Victorian London. A note directed him to a secluded meeting. As he approached, a man in a long, dark coat emerged from the mist. The informant's voice was urgent: "They're watching, detective." He handed over a ledger filled with cryptic entries, urging James to uncover the truth before disappearing into the fog.`,
	},
	{
		Input:  "Write a concise summary of the chapter where the protagonist faces their first major obstacle.",
		Answer: `James's investigation led him to Lord Blackwood's mansion. Disguised as a social call, he navigated the grand halls to find crucial evidence. As he rifled through drawers, Lord Blackwood entered. "What are you doing here, Worthington?" A tense exchange ensued, and James narrowly escaped, realizing Blackwood was onto him.`,
	},
	{
		Input:  "Write a concise summary of the chapter where the protagonist discovers a shocking secret.",
		Answer: `In an abandoned library, James found letters from his late father, revealing a link to a criminal syndicate. The final letter detailed his father's regret and attempt to escape the syndicate. This revelation shook James, fueling his determination to bring the truth to light.`,
	},
	{
		Input:  "Write a concise summary of the chapter where the protagonist forms an unexpected alliance.",
		Answer: `In a seedy tavern, James met Lila, a master thief. Initially tense, they formed an uneasy alliance. Lila's underworld knowledge and James's quest for truth aligned, and they planned to infiltrate the syndicate's stronghold together.`,
	},
}

const summarySystemPromptTemplate = `You are an experienced novelist who %s
Write a concise, character-focused summary of the next events in the story.
Focus on the actions, decisions, and emotions of the characters.
Avoid generic descriptions of suspense or tension.
Ensure the summary flows smoothly from the prologue and adds new developments.`

const summaryUserPromptTemplate = `Story Elements: %s
Prologue: %s
Story Prompt: %s
Previous Story: %s
Write a concise, realistic, and engaging summary of the next events in the story. Highlight both hope and despair in the narrative. Make it provocative and creative.
Ensure the summary continues smoothly from the prologue, without repeating information.
Focus on new developments, character arcs, and plot progression.`

const recommendSystemPromptTemplate = `You are an experienced novelist who %s
Based on the current summary prompt, provide three compelling recommendations for the next part of the summary.
Be extremely contextual and realistic with your recommendations.
Each recommendation should have 'Title': 'Description'. For example: 'James discovers a hidden clue': 'James finds a hidden compartment in the desk, revealing a map that leads to a secret location.'
Limit the length of each description to 1-2 sentences.`

const translatePromptTemplate = "Translate the following text to %s: %s"
