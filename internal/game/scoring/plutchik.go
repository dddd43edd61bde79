package scoring

import (
	"fmt"
	"math"
	"strings"
)

// 情绪轮上 8 个轴的位置，相邻轴差 1，相对轴差 4
var wheelAxes = map[string]int{
	"joy":          0,
	"trust":        1,
	"fear":         2,
	"surprise":     3,
	"sadness":      4,
	"disgust":      5,
	"anger":        6,
	"anticipation": 7,
}

var intensityLevels = map[string]int{
	"weak":   0,
	"medium": 1,
	"strong": 2,
}

// Relationship 两个情绪在情绪轮上的位置关系
type Relationship string

const (
	RelationExact    Relationship = "exact"
	RelationSameAxis Relationship = "same_axis"
	RelationAdjacent Relationship = "adjacent_axis"
	RelationOpposite Relationship = "opposite_axis"
	RelationDistant  Relationship = "distant_axis"
)

// Closeness 猜测与正确答案的距离评分
type Closeness struct {
	Score             int
	Relationship      Relationship
	AxisDistance      int
	IntensityDistance int
	Distance          float64 // 轴距离 + 0.5 × 强度距离
}

// 按 (关系, 强度差) 给出满分的比例；强度差 0/1/2
var closenessRatios = map[Relationship][3]float64{
	RelationSameAxis: {1.0, 0.85, 0.70},
	RelationAdjacent: {0.60, 0.45, 0.30},
	RelationOpposite: {0.10, 0.05, 0},
	RelationDistant:  {0.25, 0.15, 0.05},
}

// wheelPosition 解析情绪 ID：wheel 模式的 "<轴>_<强度>"，或基本情绪 "<轴>"（视为中等强度）
func wheelPosition(id string) (axis, intensity int, err error) {
	name, level, found := strings.Cut(id, "_")
	if !found {
		level = "medium"
	}
	axis, okAxis := wheelAxes[name]
	intensity, okLevel := intensityLevels[level]
	if !okAxis || !okLevel {
		return 0, 0, fmt.Errorf("scoring: %q is not on the emotion wheel", id)
	}
	return axis, intensity, nil
}

// Plutchik 按情绪轮距离给部分分：同一情绪得满分，同轴其次，相邻轴、远轴递减，相对轴几乎不得分
func Plutchik(correctID, guessedID string, maxScore int) (Closeness, error) {
	ca, ci, err := wheelPosition(correctID)
	if err != nil {
		return Closeness{}, err
	}
	ga, gi, err := wheelPosition(guessedID)
	if err != nil {
		return Closeness{}, err
	}

	d := ca - ga
	if d < 0 {
		d = -d
	}
	axisDist := min(d, len(wheelAxes)-d)
	intensityDist := ci - gi
	if intensityDist < 0 {
		intensityDist = -intensityDist
	}

	res := Closeness{
		AxisDistance:      axisDist,
		IntensityDistance: intensityDist,
		Distance:          float64(axisDist) + 0.5*float64(intensityDist),
	}
	switch axisDist {
	case 0:
		res.Relationship = RelationSameAxis
	case 1:
		res.Relationship = RelationAdjacent
	case len(wheelAxes) / 2:
		res.Relationship = RelationOpposite
	default:
		res.Relationship = RelationDistant
	}
	if axisDist == 0 && intensityDist == 0 {
		res.Relationship = RelationExact
		res.Score = maxScore
		return res, nil
	}

	ratio := closenessRatios[res.Relationship][intensityDist]
	res.Score = int(math.Round(ratio * float64(maxScore)))
	return res, nil
}
