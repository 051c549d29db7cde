package packlate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON locates the JSON object embedded in a free-form reply: the span
// from the first '{' to the last '}', after unwrapping a fenced code block
// when one is present.
func ExtractJSON(reply string) (string, error) {
	content := strings.TrimSpace(reply)

	if m := fencedBlock.FindStringSubmatch(content); len(m) > 1 && strings.Contains(m[1], "{") {
		content = m[1]
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", &ParseError{Message: "no JSON object found in reply", Reply: reply}
	}

	return content[start : end+1], nil
}

// ParseTranslation extracts and strictly decodes the first translation object
// of a reply. The object must carry exactly the five target-language keys,
// each a string or null.
func ParseTranslation(reply string) (Translation, error) {
	raw, err := ExtractJSON(reply)
	if err != nil {
		return Translation{}, err
	}

	// Only the first object counts; prose after it may contain braces of its
	// own, such as {placeholder} templates.
	var fields map[string]*string
	if err := json.NewDecoder(strings.NewReader(raw)).Decode(&fields); err != nil {
		return Translation{}, &ParseError{Message: "reply is not a translation object", Cause: err, Reply: reply}
	}

	var unknown []string
	for key := range fields {
		if !IsTargetLanguage(Language(key)) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Translation{}, &ParseError{
			Message: fmt.Sprintf("unknown fields %s", strings.Join(unknown, ", ")),
			Reply:   reply,
		}
	}

	var tr Translation
	var missing []string
	for _, lang := range Languages {
		v, ok := fields[string(lang)]
		if !ok {
			missing = append(missing, string(lang))
			continue
		}
		tr.Set(lang, v)
	}
	if len(missing) > 0 {
		return Translation{}, &ParseError{
			Message: fmt.Sprintf("missing fields %s", strings.Join(missing, ", ")),
			Reply:   reply,
		}
	}

	return tr, nil
}
