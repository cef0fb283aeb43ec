package results

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// MarshalJSON writes the flat persistence form: scores as label keys
// followed by file_path, or error/message/file_path for failed items.
func (r Record) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if r.Err != nil {
		if err := write(KeyError, string(r.Err.Kind)); err != nil {
			return nil, err
		}
		if err := write(KeyMessage, r.Err.Message); err != nil {
			return nil, err
		}
	} else {
		for _, sc := range r.Scores {
			if err := write(string(sc.Label), sc.Value); err != nil {
				return nil, err
			}
		}
	}
	if err := write(KeyFilePath, r.FilePath); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the flat persistence form. It also accepts the
// legacy {"Error": msg, "file_path": p} shape. Score labels keep the order
// in which they appear in the document.
func (r *Record) UnmarshalJSON(data []byte) error {
	members, err := decodeFields(data)
	if err != nil {
		return err
	}

	var filePath string
	if v, ok := members.get(KeyFilePath); ok {
		if err := json.Unmarshal(v, &filePath); err != nil {
			return fmt.Errorf("decode %s: %w", KeyFilePath, err)
		}
	}

	if msg, kind, ok, err := decodeError(members); err != nil {
		return err
	} else if ok {
		*r = NewErrorRecord(filePath, kind, msg)
		return nil
	}

	scores := make(Scores, 0, len(members))
	for _, f := range members {
		if IsReserved(f.key) {
			continue
		}
		var v float64
		if err := json.Unmarshal(f.value, &v); err != nil {
			return fmt.Errorf("decode score %q: %w", f.key, err)
		}
		scores = append(scores, Score{Label: Pathology(f.key), Value: v})
	}

	rec, err := NewScoredRecord(filePath, scores)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

type field struct {
	key   string
	value json.RawMessage
}

// fields are the members of one JSON object in document order.
type fields []field

// get returns the last value stored under key.
func (fs fields) get(key string) (json.RawMessage, bool) {
	for i := len(fs) - 1; i >= 0; i-- {
		if fs[i].key == key {
			return fs[i].value, true
		}
	}
	return nil, false
}

// decodeFields walks a JSON object token by token so member order survives.
func decodeFields(data []byte) (fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var out fields
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %q: %w", key, err)
		}
		out = append(out, field{key: key, value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeError(raw fields) (string, ErrorKind, bool, error) {
	if v, ok := raw.get(keyLegacyError); ok {
		var msg string
		if err := json.Unmarshal(v, &msg); err != nil {
			return "", "", false, fmt.Errorf("decode %s: %w", keyLegacyError, err)
		}
		return msg, KindInference, true, nil
	}
	v, ok := raw.get(KeyError)
	if !ok {
		return "", "", false, nil
	}
	var kind, msg string
	if err := json.Unmarshal(v, &kind); err != nil {
		return "", "", false, fmt.Errorf("decode %s: %w", KeyError, err)
	}
	if m, ok := raw.get(KeyMessage); ok {
		if err := json.Unmarshal(m, &msg); err != nil {
			return "", "", false, fmt.Errorf("decode %s: %w", KeyMessage, err)
		}
	}
	return msg, ParseErrorKind(kind), true, nil
}

// WriteFile persists records as one JSON array, indented with four spaces.
func WriteFile(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results %s: %w", path, err)
	}
	return nil
}

// Rejected is an entry of a results file that cannot be read back as a
// Record, such as a null or an entry with neither scores nor an error.
type Rejected struct {
	Index    int    // 0-based position in the file
	FilePath string // empty when the entry names none
	Reason   string
}

// Label names the entry for reports: its file path when known.
func (r Rejected) Label() string {
	if r.FilePath != "" {
		return r.FilePath
	}
	return fmt.Sprintf("entry %d", r.Index+1)
}

// ReadFile loads a results file written by WriteFile or by the legacy tools.
// Unusable entries do not fail the file: they are returned as Rejected, in
// file order, and the remaining records are kept. Only an unreadable file or
// one that is not a JSON array is an error.
func ReadFile(path string) ([]Record, []Rejected, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read results %s: %w", path, err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, fmt.Errorf("decode results %s: %w", path, err)
	}

	records := make([]Record, 0, len(entries))
	var rejected []Rejected
	for i, raw := range entries {
		if string(bytes.TrimSpace(raw)) == "null" {
			rejected = append(rejected, Rejected{Index: i, Reason: "null entry"})
			continue
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			rejected = append(rejected, Rejected{Index: i, FilePath: entryFilePath(raw), Reason: err.Error()})
			continue
		}
		records = append(records, rec)
	}
	return records, rejected, nil
}

// entryFilePath recovers file_path from an entry that failed to decode.
func entryFilePath(raw json.RawMessage) string {
	var entry struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return ""
	}
	return entry.FilePath
}
