package utils

import (
	"bytes"
	"testing"
)

func TestB2SAndS2B(t *testing.T) {
	s := "水体分类Water01"
	if B2S(S2B(s)) != s {
		t.Fatal("roundtrip mismatch")
	}
	b := []byte{0x57, 0x61, 0x74, 0x65, 0x72}
	if !bytes.Equal(S2B(B2S(b)), b) {
		t.Fatal("roundtrip mismatch")
	}
	if len(S2B("")) != 0 {
		t.Fatal("empty string")
	}
}

func TestGbkTrans(t *testing.T) {
	s := "河流Lake01"
	gbk, err := Utf8StrToGbk(s)
	if err != nil {
		t.Fatal(err)
	}
	if gbk == s {
		t.Fatal("gbk should differ from utf8")
	}
	back, err := GbkStrToUtf8(gbk)
	if err != nil {
		t.Fatal(err)
	}
	if back != s {
		t.Fatalf("got %s", back)
	}

	gb, err := Utf8ToGbk([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	bb, err := GbkToUtf8(gb)
	if err != nil {
		t.Fatal(err)
	}
	if string(bb) != s {
		t.Fatalf("got %s", bb)
	}
}

func TestGbkTransAscii(t *testing.T) {
	// 纯ASCII在两种编码下一致
	s := "Pond_03"
	gbk, err := Utf8StrToGbk(s)
	if err != nil || gbk != s {
		t.Fatalf("got %s, %v", gbk, err)
	}
	u, err := GbkStrToUtf8(s)
	if err != nil || u != s {
		t.Fatalf("got %s, %v", u, err)
	}
}
