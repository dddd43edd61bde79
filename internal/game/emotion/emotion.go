// Package emotion 定义三种游戏模式的情绪词表和投票选项生成
package emotion

import (
	"math/rand/v2"
	"slices"
)

// Mode 游戏模式，决定使用哪一套情绪词表
type Mode string

const (
	ModeBasic    Mode = "basic"
	ModeAdvanced Mode = "advanced"
	ModeWheel    Mode = "wheel"
)

// Valid 是否为已知模式
func (m Mode) Valid() bool {
	return m == ModeBasic || m == ModeAdvanced || m == ModeWheel
}

// Emotion 一个可被投票的情绪
type Emotion struct {
	ID     string
	NameJA string
	NameEN string
}

var basic = []Emotion{
	{"joy", "喜び", "Joy"},
	{"anticipation", "期待", "Anticipation"},
	{"anger", "怒り", "Anger"},
	{"disgust", "嫌悪", "Disgust"},
	{"sadness", "悲しみ", "Sadness"},
	{"surprise", "驚き", "Surprise"},
	{"fear", "恐れ", "Fear"},
	{"trust", "信頼", "Trust"},
}

// 二元情绪（两种基本情绪的组合）
var advanced = []Emotion{
	{"optimism", "楽観", "Optimism"},
	{"pride", "誇り", "Pride"},
	{"morbidness", "病的状態", "Morbidness"},
	{"aggressiveness", "積極性", "Aggressiveness"},
	{"cynicism", "冷笑", "Cynicism"},
	{"pessimism", "悲観", "Pessimism"},
	{"contempt", "軽蔑", "Contempt"},
	{"envy", "羨望", "Envy"},
	{"outrage", "憤慨", "Outrage"},
	{"remorse", "後悔", "Remorse"},
	{"unbelief", "不信", "Unbelief"},
	{"shame", "恥", "Shame"},
	{"disappointment", "失望", "Disappointment"},
	{"despair", "絶望", "Despair"},
	{"sentimentality", "感傷", "Sentimentality"},
	{"awe", "畏怖", "Awe"},
	{"curiosity", "好奇心", "Curiosity"},
	{"delight", "歓喜", "Delight"},
	{"submission", "服従", "Submission"},
	{"guilt", "罪悪感", "Guilt"},
	{"anxiety", "不安", "Anxiety"},
	{"love", "愛", "Love"},
	{"hope", "希望", "Hope"},
	{"dominance", "優位", "Dominance"},
}

// 情绪轮：8 个轴 × 强/中/弱
var wheel = []Emotion{
	{"joy_strong", "陶酔", "Ecstasy"},
	{"joy_medium", "喜び", "Joy"},
	{"joy_weak", "平穏", "Serenity"},
	{"trust_strong", "敬愛", "Admiration"},
	{"trust_medium", "信頼", "Trust"},
	{"trust_weak", "容認", "Acceptance"},
	{"fear_strong", "恐怖", "Terror"},
	{"fear_medium", "恐れ", "Fear"},
	{"fear_weak", "不安", "Apprehension"},
	{"surprise_strong", "驚嘆", "Amazement"},
	{"surprise_medium", "驚き", "Surprise"},
	{"surprise_weak", "放心", "Distraction"},
	{"sadness_strong", "悲嘆", "Grief"},
	{"sadness_medium", "悲しみ", "Sadness"},
	{"sadness_weak", "哀愁", "Pensiveness"},
	{"disgust_strong", "強い嫌悪", "Loathing"},
	{"disgust_medium", "嫌悪", "Disgust"},
	{"disgust_weak", "うんざり", "Boredom"},
	{"anger_strong", "激怒", "Rage"},
	{"anger_medium", "怒り", "Anger"},
	{"anger_weak", "苛立ち", "Annoyance"},
	{"anticipation_strong", "警戒", "Vigilance"},
	{"anticipation_medium", "期待", "Anticipation"},
	{"anticipation_weak", "関心", "Interest"},
}

var index = buildIndex()

func buildIndex() map[string]Emotion {
	m := make(map[string]Emotion, len(basic)+len(advanced)+len(wheel))
	for _, list := range [][]Emotion{basic, advanced, wheel} {
		for _, e := range list {
			m[e.ID] = e
		}
	}
	return m
}

// Vocabulary 返回模式对应的词表副本，未知模式回退到 basic
func Vocabulary(mode Mode) []Emotion {
	switch mode {
	case ModeAdvanced:
		return slices.Clone(advanced)
	case ModeWheel:
		return slices.Clone(wheel)
	default:
		return slices.Clone(basic)
	}
}

// Lookup 按 ID 查找情绪（跨所有词表）
func Lookup(id string) (Emotion, bool) {
	e, ok := index[id]
	return e, ok
}

// Name 返回情绪的日文名，未知 ID 原样返回
func Name(id string) string {
	if e, ok := index[id]; ok {
		return e.NameJA
	}
	return id
}

// Contains 词表中是否包含该情绪
func Contains(mode Mode, id string) bool {
	return slices.ContainsFunc(Vocabulary(mode), func(e Emotion) bool { return e.ID == id })
}

// Random 从模式词表中随机选一个情绪
func Random(mode Mode, rng *rand.Rand) Emotion {
	vocab := Vocabulary(mode)
	return vocab[intN(rng, len(vocab))]
}

// ChoiceCount 投票方式对应的选项数，0 表示整个词表
func ChoiceCount(voteType string) int {
	switch voteType {
	case "8choice":
		return 8
	case "wheel":
		return 0
	default:
		return 4
	}
}

// Choices 生成投票选项：正确答案加上不重复的随机干扰项，打乱顺序。
// count <= 0 或超过词表大小时返回整个词表。
func Choices(mode Mode, targetID string, count int, rng *rand.Rand) []Emotion {
	vocab := Vocabulary(mode)
	if count <= 0 || count >= len(vocab) {
		shuffle(vocab, rng)
		return vocab
	}

	choices := make([]Emotion, 0, count)
	if target, ok := index[targetID]; ok {
		choices = append(choices, target)
	}

	pool := slices.DeleteFunc(vocab, func(e Emotion) bool { return e.ID == targetID })
	shuffle(pool, rng)
	choices = append(choices, pool[:count-len(choices)]...)
	shuffle(choices, rng)
	return choices
}

func shuffle(list []Emotion, rng *rand.Rand) {
	swap := func(i, j int) { list[i], list[j] = list[j], list[i] }
	if rng != nil {
		rng.Shuffle(len(list), swap)
		return
	}
	rand.Shuffle(len(list), swap)
}

func intN(rng *rand.Rand, n int) int {
	if rng != nil {
		return rng.IntN(n)
	}
	return rand.IntN(n)
}
