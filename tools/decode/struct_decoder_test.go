package decode

import "testing"

type samplePayload struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	Limit          int64  `json:"limit"`
}

func TestDecodeMapByJSONTag(t *testing.T) {
	p, err := DecodeMap[samplePayload](map[string]any{
		"conversation_id": "c1",
		"content":         "hi",
	})
	if err != nil {
		t.Fatalf("DecodeMap: %v", err)
	}
	if p.ConversationID != "c1" || p.Content != "hi" {
		t.Fatalf("decoded = %+v", p)
	}
}

func TestDecodeMapWeakNumbers(t *testing.T) {
	// JSON numbers arrive as float64; weak mode also tolerates numeric strings
	p, err := DecodeMap[samplePayload](map[string]any{"limit": float64(25)})
	if err != nil {
		t.Fatalf("DecodeMap float: %v", err)
	}
	if p.Limit != 25 {
		t.Fatalf("Limit = %d, want 25", p.Limit)
	}

	p, err = DecodeMap[samplePayload](map[string]any{"limit": "50"})
	if err != nil {
		t.Fatalf("DecodeMap string number: %v", err)
	}
	if p.Limit != 50 {
		t.Fatalf("Limit = %d, want 50", p.Limit)
	}
}

func TestDecodeMapMissingFieldsZeroValued(t *testing.T) {
	p, err := DecodeMap[samplePayload](map[string]any{})
	if err != nil {
		t.Fatalf("DecodeMap empty: %v", err)
	}
	if p.ConversationID != "" || p.Limit != 0 {
		t.Fatalf("decoded = %+v, want zero values", p)
	}
}

func TestDecodeMapNil(t *testing.T) {
	if _, err := DecodeMap[samplePayload](nil); err == nil {
		t.Fatal("nil payload accepted")
	}
}

func TestReadHelpers(t *testing.T) {
	m := map[string]any{"name": "x", "n": float64(7)}
	s, err := ReadString(m, "name")
	if err != nil || s != "x" {
		t.Fatalf("ReadString = %q, %v", s, err)
	}
	if _, err := ReadString(m, "missing"); err == nil {
		t.Fatal("missing key accepted")
	}
	n, err := ReadInt64(m, "n")
	if err != nil || n != 7 {
		t.Fatalf("ReadInt64 = %d, %v", n, err)
	}
}
