package util

import (
	"journey_backend/internal/model"
	"strings"
)

var validLevels = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

var validFormats = map[string]bool{
	"video": true,
	"blog":  true,
	"doc":   true,
	"any":   true,
	"mixed": true,
}

// 占位性主题直接拒绝，避免为 "test" 之类的输入跑整条抓取管线
var placeholderTopics = map[string]bool{
	"test":    true,
	"testing": true,
	"asdf":    true,
	"todo":    true,
	"topic":   true,
	"none":    true,
}

// ValidateIntent 唯一的意图校验入口：返回补全默认值后的 Intent
// 以及被默认填充的字段名列表。topic 为空或占位时返回 ErrInvalidTopic。
func ValidateIntent(in model.Intent) (model.Intent, []string, error) {
	out := in
	defaulted := []string{}

	out.Topic = strings.TrimSpace(out.Topic)
	if out.Topic == "" || placeholderTopics[strings.ToLower(out.Topic)] {
		return out, nil, ErrInvalidTopic
	}

	out.Level = strings.ToLower(strings.TrimSpace(out.Level))
	if !validLevels[out.Level] {
		out.Level = "beginner"
		defaulted = append(defaulted, "level")
	}

	out.Goal = strings.TrimSpace(out.Goal)
	if out.Goal == "" {
		out.Goal = "Learn " + out.Topic
		defaulted = append(defaulted, "goal")
	}

	out.PreferredFormat = strings.ToLower(strings.TrimSpace(out.PreferredFormat))
	if !validFormats[out.PreferredFormat] {
		out.PreferredFormat = "any"
		defaulted = append(defaulted, "preferredFormat")
	}

	if strings.TrimSpace(out.TimeCommitment) == "" {
		out.TimeCommitment = "flexible"
		defaulted = append(defaulted, "timeCommitment")
	}

	return out, defaulted, nil
}

// MixedFormat any/mixed 都按混合格式处理
func MixedFormat(format string) bool {
	f := strings.ToLower(format)
	return f == "" || f == "any" || f == "mixed" || f == "mix"
}
