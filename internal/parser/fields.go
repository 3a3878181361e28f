package parser

import (
	"regexp"
	"strings"
)

// Surface names
const (
	SurfaceTurf    = "芝"
	SurfaceDirt    = "ダート"
	SurfaceSteeple = "障害"
	separatorDot   = "・"
	maxGlyphRank   = 16
	maxHorseNumber = 18
	firstGlyphRune = '①'
)

var digitsPattern = regexp.MustCompile(`\d+`)

var goingAliases = map[string]string{
	"稍":  "稍重",
	"稍重": "稍重",
	"良":  "良",
	"重":  "重",
	"不良": "不良",
}

// ExtractSurface derives the track surface from a condition such as "ダ1400"
func ExtractSurface(condition string) string {
	switch {
	case strings.HasPrefix(condition, "芝"):
		return SurfaceTurf
	case strings.HasPrefix(condition, "ダ"):
		return SurfaceDirt
	case strings.HasPrefix(condition, "障"):
		return SurfaceSteeple
	}
	return ""
}

// ExtractDistance returns the first run of digits in the condition
func ExtractDistance(condition string) string {
	return digitsPattern.FindString(condition)
}

// ExtractGoing returns the normalized going from a "良・曇" style field
func ExtractGoing(trackWeather string) string {
	going := strings.SplitN(trackWeather, separatorDot, 2)[0]
	if normalized, ok := goingAliases[going]; ok {
		return normalized
	}
	return going
}

// ExtractWeather returns the weather half of a "良・曇" style field
func ExtractWeather(trackWeather string) string {
	parts := strings.SplitN(trackWeather, separatorDot, 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// ParseHorseInfo strips a trailing circled-number glyph (①..⑯) and returns the horse name
// and the market rank it encodes. Rank is nil when no glyph is present.
func ParseHorseInfo(info string) (string, *int) {
	runes := []rune(info)
	if len(runes) == 0 {
		return info, nil
	}
	last := runes[len(runes)-1]
	rank := int(last-firstGlyphRune) + 1
	if rank < 1 || rank > maxGlyphRank {
		return info, nil
	}
	return string(runes[:len(runes)-1]), &rank
}

// RankGlyph returns the circled-number glyph for a rank, or "" when out of range
func RankGlyph(rank int) string {
	if rank < 1 || rank > maxGlyphRank {
		return ""
	}
	return string(firstGlyphRune + rune(rank-1))
}
