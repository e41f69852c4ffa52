// Package taxonomy 定义固定的内容评分维度及其权重（代码内置，用户不可编辑）。
package taxonomy

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

const (
	MinRating = 0
	MaxRating = 10
)

var (
	ErrUnknownCategory = errors.New("unknown rating category")
	ErrRatingRange     = errors.New("rating must be between 0 and 10")
)

// Subcategory 细分维度，Weight 为带符号的权重（负数会降低 DreadScore）
type Subcategory struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Category 评分大类
type Category struct {
	Key           string        `json:"key"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

var categories = []Category{
	{
		Key:  "violence",
		Name: "Violence",
		Subcategories: []Subcategory{
			{Key: "physicalViolence", Name: "Physical Violence", Weight: 0.9},
			{Key: "weaponViolence", Name: "Weapon Violence", Weight: 1.0},
			{Key: "goreBlood", Name: "Gore & Blood", Weight: 1.0},
			{Key: "torture", Name: "Torture", Weight: 1.0},
			{Key: "jumpScares", Name: "Jump Scares", Weight: 0.6},
			{Key: "animalCruelty", Name: "Animal Cruelty", Weight: 1.0},
		},
	},
	{
		Key:  "sexualContent",
		Name: "Sexual Content",
		Subcategories: []Subcategory{
			{Key: "romance", Name: "Romance", Weight: -0.5},
			{Key: "sexualNonExplicit", Name: "Sexual (Non-Explicit)", Weight: 0.6},
			{Key: "sexualExplicit", Name: "Sexual (Explicit)", Weight: 1.0},
			{Key: "sexualViolence", Name: "Sexual Violence", Weight: 1.0},
		},
	},
	{
		Key:  "language",
		Name: "Language",
		Subcategories: []Subcategory{
			{Key: "profanity", Name: "Profanity", Weight: 0.5},
			{Key: "humor", Name: "Humor", Weight: -0.3},
		},
	},
	{
		Key:  "disturbingContent",
		Name: "Disturbing Content",
		Subcategories: []Subcategory{
			{Key: "bodyHorror", Name: "Body Horror", Weight: 1.0},
			{Key: "substanceUse", Name: "Substance Use", Weight: 0.7},
			{Key: "mentalHealthCrises", Name: "Mental Health Crises", Weight: 0.8},
			{Key: "selfHarmSuicide", Name: "Self-Harm/Suicide", Weight: 1.0},
			{Key: "childEndangerment", Name: "Child Endangerment", Weight: 1.0},
			{Key: "discrimination", Name: "Discrimination", Weight: 0.8},
			{Key: "deathGrief", Name: "Death/Grief", Weight: 0.6},
			{Key: "crimeIllegal", Name: "Crime/Illegal Activities", Weight: 0.5},
			{Key: "psychologicalHorror", Name: "Psychological Horror", Weight: 0.9},
			{Key: "intenseSituations", Name: "Intense Situations", Weight: 0.5},
		},
	},
}

var index = buildIndex()

func buildIndex() map[string]map[string]Subcategory {
	idx := make(map[string]map[string]Subcategory, len(categories))
	for _, c := range categories {
		subs := make(map[string]Subcategory, len(c.Subcategories))
		for _, s := range c.Subcategories {
			subs[s.Key] = s
		}
		idx[c.Key] = subs
	}
	return idx
}

// Categories 按固定顺序返回所有大类（返回副本）
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = c
		out[i].Subcategories = append([]Subcategory(nil), c.Subcategories...)
	}
	return out
}

// Lookup 查找细分维度
func Lookup(category, subcategory string) (Subcategory, bool) {
	subs, ok := index[category]
	if !ok {
		return Subcategory{}, false
	}
	s, ok := subs[subcategory]
	return s, ok
}

// Valid 判断 (category, subcategory) 是否属于评分体系
func Valid(category, subcategory string) bool {
	_, ok := Lookup(category, subcategory)
	return ok
}

// Validate 校验维度与分值
func Validate(category, subcategory string, rating int) error {
	if !Valid(category, subcategory) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownCategory, category, subcategory)
	}
	return ValidateRating(rating)
}

// ValidateRating 校验分值范围 0..10
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrRatingRange
	}
	return nil
}

// WeightLabel 权重角标，如 "↑1.0x"、"↓0.5x"
func WeightLabel(weight float64) string {
	arrow := "↑"
	if weight < 0 {
		arrow = "↓"
	}
	return arrow + strconv.FormatFloat(math.Abs(weight), 'f', 1, 64) + "x"
}

// WeightHint 权重说明文字
func WeightHint(weight float64) string {
	abs := strconv.FormatFloat(math.Abs(weight), 'f', -1, 64)
	if weight < 0 {
		return "Reduces DreadScore (" + abs + "x)"
	}
	return "Weight: " + abs + "x"
}

// Count 细分维度总数
func Count() int {
	n := 0
	for _, c := range categories {
		n += len(c.Subcategories)
	}
	return n
}
