package dough

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// The logs are append-only JSONL files: one canonical JSON object per line,
// discriminated by its "type" property. Blank lines and lines starting with
// '#' are comments.

// fileLine is a line of a log file, with its position for error messages.
type fileLine struct {
	filename string
	i        int
	txt      string
}

// decodeLines reads the non-comment lines of a log. A missing file is an empty log.
func decodeLines(filename string, r io.Reader) ([]fileLine, error) {
	var list []fileLine
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	i := 0
	for scanner.Scan() {
		i++
		txt := scanner.Text()
		trimmed := strings.TrimSpace(txt)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		list = append(list, fileLine{filename, i, txt})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %q: %w", filename, err)
	}
	return list, nil
}

// readLines opens filename and reads its lines. A missing file yields no line.
func readLines(filename string) ([]fileLine, error) {
	f, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open log %q: %w", filename, err)
	}
	defer f.Close()
	return decodeLines(filename, f)
}

// lineType returns the value of the "type" property of a log line.
func lineType(l fileLine) (string, error) {
	var identifier struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(l.txt), &identifier); err != nil {
		return "", fmt.Errorf("parse error %s:%d: not a correct json: %w", l.filename, l.i, err)
	}
	return identifier.Type, nil
}

func unmarshalLine(l fileLine, v any) error {
	if err := json.Unmarshal([]byte(l.txt), v); err != nil {
		return fmt.Errorf("parse error %s:%d: %w", l.filename, l.i, err)
	}
	return nil
}

func decodeJournalLine(l fileLine) (JournalLine, error) {
	typ, err := lineType(l)
	if err != nil {
		return nil, err
	}
	switch typ {
	case "JournalEntry":
		var e JournalEntry
		if err := unmarshalLine(l, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case "RevertJournalEntry":
		var r RevertJournalEntry
		if err := unmarshalLine(l, &r); err != nil {
			return nil, err
		}
		return &r, nil
	default:
		return nil, fmt.Errorf("parse error %s:%d: unknown journal line type %q", l.filename, l.i, typ)
	}
}

func decodeClassificationLine(l fileLine) (ClassificationLine, error) {
	typ, err := lineType(l)
	if err != nil {
		return nil, err
	}
	switch typ {
	case "ClassifiedTransaction":
		var ct ClassifiedTransaction
		if err := unmarshalLine(l, &ct); err != nil {
			return nil, err
		}
		return &ct, nil
	case "RevertClassifiedTransaction":
		var r RevertClassifiedTransaction
		if err := unmarshalLine(l, &r); err != nil {
			return nil, err
		}
		return &r, nil
	default:
		return nil, fmt.Errorf("parse error %s:%d: unknown classification line type %q", l.filename, l.i, typ)
	}
}

func decodeSourceLine(l fileLine) (*SourceTransaction, error) {
	var t SourceTransaction
	if err := unmarshalLine(l, &t); err != nil {
		return nil, err
	}
	switch t.Type {
	case FeedTransaction, ScheduledTransaction, UtilityBillTransaction:
		return &t, nil
	default:
		return nil, fmt.Errorf("parse error %s:%d: unknown source transaction type %q", l.filename, l.i, t.Type)
	}
}

func readLog[T any](filename string, decode func(fileLine) (T, error)) ([]T, error) {
	lines, err := readLines(filename)
	if err != nil {
		return nil, err
	}
	list := make([]T, 0, len(lines))
	for _, l := range lines {
		v, err := decode(l)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

// ReadJournalLog reads the journal log. A missing file is an empty log.
func ReadJournalLog(filename string) ([]JournalLine, error) {
	return readLog(filename, decodeJournalLine)
}

// ReadClassificationLog reads the classification log. A missing file is an empty log.
func ReadClassificationLog(filename string) ([]ClassificationLine, error) {
	return readLog(filename, decodeClassificationLine)
}

// ReadSourceLog reads the source transaction log. A missing file is an empty log.
func ReadSourceLog(filename string) ([]*SourceTransaction, error) {
	return readLog(filename, decodeSourceLine)
}

// encodeTyped returns the canonical line for v, tagged with typ.
func encodeTyped(typ string, v any) ([]byte, error) {
	var w jsonObjectWriter
	return w.Append("type", typ).EmbedFrom(v).Canonical()
}

// EncodeJournalLine returns the canonical JSON line for l, without the newline.
func EncodeJournalLine(l JournalLine) ([]byte, error) {
	switch l := l.(type) {
	case *JournalEntry:
		return encodeTyped("JournalEntry", l)
	case *RevertJournalEntry:
		return encodeTyped("RevertJournalEntry", l)
	default:
		panic("unreachable: unknown journal line type")
	}
}

// EncodeClassificationLine returns the canonical JSON line for l, without the newline.
func EncodeClassificationLine(l ClassificationLine) ([]byte, error) {
	switch l := l.(type) {
	case *ClassifiedTransaction:
		return encodeTyped("ClassifiedTransaction", l)
	case *RevertClassifiedTransaction:
		return encodeTyped("RevertClassifiedTransaction", l)
	default:
		panic("unreachable: unknown classification line type")
	}
}

// EncodeSourceTransaction returns the canonical JSON line for t, without the newline.
func EncodeSourceTransaction(t *SourceTransaction) ([]byte, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return canonicalJSON(raw)
}

func encodeAll[T any](items []T, encode func(T) ([]byte, error)) ([][]byte, error) {
	lines := make([][]byte, 0, len(items))
	for _, it := range items {
		b, err := encode(it)
		if err != nil {
			return nil, err
		}
		lines = append(lines, b)
	}
	return lines, nil
}

// appendLines appends lines to filename, creating it and its directory if needed.
// Nothing is written if there is no line.
func appendLines(filename string, lines [][]byte) error {
	if len(lines) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("could not create directory for %q: %w", filename, err)
	}
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("could not open %q for appending: %w", filename, err)
	}
	w := bufio.NewWriter(f)
	for _, l := range lines {
		w.Write(l)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("could not append to %q: %w", filename, err)
	}
	return f.Close()
}

// AppendJournalLines appends lines to the journal log.
func AppendJournalLines(filename string, lines ...JournalLine) error {
	encoded, err := encodeAll(lines, EncodeJournalLine)
	if err != nil {
		return err
	}
	return appendLines(filename, encoded)
}

// AppendClassificationLines appends lines to the classification log.
func AppendClassificationLines(filename string, lines ...ClassificationLine) error {
	encoded, err := encodeAll(lines, EncodeClassificationLine)
	if err != nil {
		return err
	}
	return appendLines(filename, encoded)
}

// AppendSourceTransactions appends transactions to the source transaction log.
func AppendSourceTransactions(filename string, txs ...*SourceTransaction) error {
	encoded, err := encodeAll(txs, EncodeSourceTransaction)
	if err != nil {
		return err
	}
	return appendLines(filename, encoded)
}
