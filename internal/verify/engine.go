package verify

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ah-its-andy/vid2hevc/internal/metadata"
)

// Fields compared per category. Lookup tolerates namespace-prefixed keys via
// TagMap.Lookup, so "QuickTime:CreateDate" satisfies "CreateDate".
var (
	dateTimeFields = []string{"CreateDate", "ModifyDate", "DateTimeOriginal", "MediaCreateDate", "MediaModifyDate"}
	cameraFields   = []string{"Make", "Model", "Software"}
	videoExact     = []string{"Rotation"}
	videoNumeric   = []string{"ImageWidth", "ImageHeight", "VideoFrameRate"}
	audioExact     = []string{"AudioCodec", "AudioChannels"}
	audioNumeric   = []string{"AudioSampleRate", "AudioBitsPerSample"}
)

// Engine compares two extracted metadata maps field by field. It never
// invokes extraction itself and never fails a whole run because one field is
// malformed; a mismatch is a normal outcome reported in the result, not an
// error.
type Engine struct {
	tolerances Tolerances
}

func NewEngine(tol Tolerances) *Engine {
	return &Engine{tolerances: tol}
}

// Verify compares original against converted. With no explicit categories all
// of them are checked. Fields absent in the original produce no check at all;
// fields present in the original but absent in the converted map fail with
// missing_in_dest.
func (e *Engine) Verify(originalID, convertedID string, original, converted metadata.TagMap, categories ...Category) Result {
	if len(categories) == 0 {
		categories = AllCategories()
	}

	result := Result{
		Original:   originalID,
		Converted:  convertedID,
		Timestamp:  time.Now(),
		Tolerances: e.tolerances,
	}

	for _, cat := range categories {
		switch cat {
		case CategoryDateTime:
			for _, field := range dateTimeFields {
				e.appendCheck(&result, e.checkDate(field, original, converted))
			}
		case CategoryGPS:
			e.checkGPS(&result, original, converted)
		case CategoryCamera:
			for _, field := range cameraFields {
				e.appendCheck(&result, e.checkString(CategoryCamera, field, original, converted, false))
			}
		case CategoryVideo:
			e.appendCheck(&result, e.checkDuration(original, converted))
			for _, field := range videoExact {
				e.appendCheck(&result, e.checkString(CategoryVideo, field, original, converted, true))
			}
			for _, field := range videoNumeric {
				e.appendCheck(&result, e.checkNumeric(CategoryVideo, field, original, converted, e.tolerances.NumericRelative))
			}
		case CategoryAudio:
			for _, field := range audioExact {
				e.appendCheck(&result, e.checkString(CategoryAudio, field, original, converted, true))
			}
			for _, field := range audioNumeric {
				e.appendCheck(&result, e.checkNumeric(CategoryAudio, field, original, converted, audioNumericRelative))
			}
		}
	}

	result.Passed = true
	for _, c := range result.Checks {
		if !c.Passed() {
			result.Passed = false
			break
		}
	}
	return result
}

// appendCheck skips nil, the marker for field-absent-in-original.
func (e *Engine) appendCheck(result *Result, check *CheckResult) {
	if check != nil {
		result.Checks = append(result.Checks, *check)
	}
}

// checkDate compares a timestamp field. When either side fails to parse the
// comparison falls back to raw string equality, which can flag semantically
// equal dates in different encodings; that behavior is kept deliberately.
func (e *Engine) checkDate(field string, original, converted metadata.TagMap) *CheckResult {
	origVal, ok := original.Lookup(field)
	if !ok {
		return nil
	}
	check := &CheckResult{
		Category:  CategoryDateTime,
		Field:     field,
		Original:  origVal,
		Tolerance: fmt.Sprintf("%.1fs", e.tolerances.DateSeconds),
	}
	convVal, ok := converted.Lookup(field)
	if !ok {
		check.Status = StatusMissingInDest
		check.Details = "tag missing in converted file"
		return check
	}
	check.Converted = convVal

	origTS, okO := metadata.ParseDate(origVal)
	convTS, okC := metadata.ParseDate(convVal)
	if !okO || !okC {
		if origVal == convVal {
			check.Status = StatusPassed
			check.Details = "unparseable timestamps, raw strings equal"
		} else {
			check.Status = StatusFailed
			check.Details = "unparseable timestamps, raw strings differ"
		}
		return check
	}

	delta := math.Abs(origTS.Sub(convTS).Seconds())
	if delta <= e.tolerances.DateSeconds {
		check.Status = StatusPassed
		check.Details = fmt.Sprintf("within tolerance (Δ%.2fs)", delta)
	} else {
		check.Status = StatusFailed
		check.Details = fmt.Sprintf("timestamps differ by %.2fs", delta)
	}
	return check
}

// checkGPS compares the composite position and, separately, altitude. GPS
// absent in the original means there is nothing to preserve and no check is
// emitted.
func (e *Engine) checkGPS(result *Result, original, converted metadata.TagMap) {
	origGPS := metadata.ResolveGPS(original)
	if origGPS == nil {
		return
	}
	check := CheckResult{
		Category:  CategoryGPS,
		Field:     "GPSPosition",
		Original:  origGPS.ToQuickTime(),
		Tolerance: fmt.Sprintf("%g°", e.tolerances.GPSDegrees),
	}

	convGPS := metadata.ResolveGPS(converted)
	if convGPS == nil {
		check.Status = StatusMissingInDest
		check.Details = "GPS present in original but absent in converted file"
		result.Checks = append(result.Checks, check)
		return
	}
	check.Converted = convGPS.ToQuickTime()

	if origGPS.Matches(*convGPS, e.tolerances.GPSDegrees) {
		check.Status = StatusPassed
		check.Details = fmt.Sprintf("positions match (%.2fm apart)", origGPS.DistanceTo(*convGPS))
	} else {
		check.Status = StatusFailed
		check.Details = fmt.Sprintf("positions differ by %.2fm", origGPS.DistanceTo(*convGPS))
	}
	result.Checks = append(result.Checks, check)

	if origGPS.Altitude == nil {
		return
	}
	altCheck := CheckResult{
		Category:  CategoryGPS,
		Field:     "GPSAltitude",
		Original:  fmt.Sprintf("%.2f", *origGPS.Altitude),
		Tolerance: fmt.Sprintf("%.1fm", altitudeToleranceMeters),
	}
	if convGPS.Altitude == nil {
		altCheck.Status = StatusMissingInDest
		altCheck.Details = "altitude present in original but absent in converted file"
	} else {
		altCheck.Converted = fmt.Sprintf("%.2f", *convGPS.Altitude)
		delta := math.Abs(*origGPS.Altitude - *convGPS.Altitude)
		if delta <= altitudeToleranceMeters {
			altCheck.Status = StatusPassed
			altCheck.Details = fmt.Sprintf("within tolerance (Δ%.2fm)", delta)
		} else {
			altCheck.Status = StatusFailed
			altCheck.Details = fmt.Sprintf("altitudes differ by %.2fm", delta)
		}
	}
	result.Checks = append(result.Checks, altCheck)
}

// checkString compares a field as text. caseSensitive=false applies the
// camera policy: trimmed, case-insensitive, zero tolerance.
func (e *Engine) checkString(cat Category, field string, original, converted metadata.TagMap, caseSensitive bool) *CheckResult {
	origVal, ok := original.Lookup(field)
	if !ok {
		return nil
	}
	check := &CheckResult{
		Category: cat,
		Field:    field,
		Original: origVal,
	}
	convVal, ok := converted.Lookup(field)
	if !ok {
		check.Status = StatusMissingInDest
		check.Details = "tag missing in converted file"
		return check
	}
	check.Converted = convVal

	a, b := strings.TrimSpace(origVal), strings.TrimSpace(convVal)
	equal := a == b
	if !caseSensitive {
		equal = strings.EqualFold(a, b)
	}
	if equal {
		check.Status = StatusPassed
		check.Details = "values match"
	} else {
		check.Status = StatusFailed
		check.Details = "values differ"
	}
	return check
}

// checkNumeric compares a field with a relative tolerance against the
// original value. An original of exactly zero only matches a converted zero.
// Non-numeric values on either side degrade to exact string comparison.
func (e *Engine) checkNumeric(cat Category, field string, original, converted metadata.TagMap, relative float64) *CheckResult {
	origVal, ok := original.Lookup(field)
	if !ok {
		return nil
	}
	check := &CheckResult{
		Category:  cat,
		Field:     field,
		Original:  origVal,
		Tolerance: fmt.Sprintf("%.2f%%", relative*100),
	}
	convVal, ok := converted.Lookup(field)
	if !ok {
		check.Status = StatusMissingInDest
		check.Details = "tag missing in converted file"
		return check
	}
	check.Converted = convVal

	origNum, errO := strconv.ParseFloat(strings.TrimSpace(origVal), 64)
	convNum, errC := strconv.ParseFloat(strings.TrimSpace(convVal), 64)
	if errO != nil || errC != nil {
		if strings.TrimSpace(origVal) == strings.TrimSpace(convVal) {
			check.Status = StatusPassed
			check.Details = "non-numeric values equal"
		} else {
			check.Status = StatusFailed
			check.Details = "non-numeric values differ"
		}
		return check
	}

	var pass bool
	if origNum == 0 {
		pass = convNum == 0
	} else {
		pass = math.Abs(origNum-convNum)/math.Abs(origNum) <= relative
	}
	if pass {
		check.Status = StatusPassed
		check.Details = "within tolerance"
	} else {
		check.Status = StatusFailed
		check.Details = fmt.Sprintf("values differ by %.4f%%", math.Abs(origNum-convNum)/math.Abs(origNum)*100)
	}
	return check
}

// checkDuration compares the Duration field with the dedicated absolute
// tolerance in seconds.
func (e *Engine) checkDuration(original, converted metadata.TagMap) *CheckResult {
	origVal, ok := original.Lookup("Duration")
	if !ok {
		return nil
	}
	check := &CheckResult{
		Category:  CategoryVideo,
		Field:     "Duration",
		Original:  origVal,
		Tolerance: fmt.Sprintf("%.1fs", e.tolerances.DurationSeconds),
	}
	convVal, ok := converted.Lookup("Duration")
	if !ok {
		check.Status = StatusMissingInDest
		check.Details = "tag missing in converted file"
		return check
	}
	check.Converted = convVal

	origSec, okO := metadata.ParseDuration(origVal)
	convSec, okC := metadata.ParseDuration(convVal)
	if !okO || !okC {
		if origVal == convVal {
			check.Status = StatusPassed
			check.Details = "unparseable durations, raw strings equal"
		} else {
			check.Status = StatusFailed
			check.Details = "unparseable durations, raw strings differ"
		}
		return check
	}

	delta := math.Abs(origSec - convSec)
	if delta <= e.tolerances.DurationSeconds {
		check.Status = StatusPassed
		check.Details = fmt.Sprintf("within tolerance (Δ%.3fs)", delta)
	} else {
		check.Status = StatusFailed
		check.Details = fmt.Sprintf("durations differ by %.3fs", delta)
	}
	return check
}
