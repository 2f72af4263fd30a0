package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	keyName         = "name_of_employee"
	keySatisfaction = "satisfaction"
)

var ErrNoJSONObject = errors.New("no JSON object found in response")

// ExtractJSONObject decodes the text between the first '{' and the last '}'
// of raw. Prose around the object is ignored.
func ExtractJSONObject(raw string) (map[string]json.RawMessage, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSONObject
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return obj, nil
}

// ParseRecord turns a raw model reply into a Record or an ExtractionError.
// Empty replies are reported before any JSON parsing is attempted.
func ParseRecord(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return failure(KindEmptyReply, "empty response from the model", &raw, nil)
	}

	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return failure(KindMalformedOutput, "JSON parsing failed", &raw, err)
	}

	var missing []string
	for _, k := range []string{keyName, keySatisfaction} {
		if _, ok := obj[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return failure(KindMalformedOutput, "missing required keys in JSON: "+strings.Join(missing, ", "), &raw, nil)
	}

	var name, rating string
	if err := json.Unmarshal(obj[keyName], &name); err != nil {
		return failure(KindMalformedOutput, keyName+" is not a string", &raw, err)
	}
	if err := json.Unmarshal(obj[keySatisfaction], &rating); err != nil {
		return failure(KindMalformedOutput, keySatisfaction+" is not a string", &raw, err)
	}

	sat, ok := normalizeSatisfaction(rating)
	if !ok {
		return failure(KindMalformedOutput, fmt.Sprintf("unknown satisfaction %q", rating), &raw, nil)
	}

	return Result{Record: &Record{
		NameOfEmployee: strings.TrimSpace(name),
		Satisfaction:   sat,
	}}
}

func normalizeSatisfaction(s string) (Satisfaction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", true
	case "bad":
		return SatisfactionBad, true
	case "average":
		return SatisfactionAverage, true
	case "good":
		return SatisfactionGood, true
	default:
		return "", false
	}
}
