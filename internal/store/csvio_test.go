package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestReadRowsMissingFileIsEmpty(t *testing.T) {
	rows, err := ReadRows(filepath.Join(t.TempDir(), "nope.csv"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if rows != nil {
		t.Errorf("got %v, want nil", rows)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	header := []string{"a", "b"}
	rows := [][]string{{"1", "x"}, {"2", "y"}}

	if err := WriteRows(path, header, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadRows(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0][0] != "1" || got[1][1] != "y" {
		t.Errorf("got %v", got)
	}
}

func TestWriteRowsCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "data.csv")
	if err := WriteRows(path, []string{"a"}, nil); err != nil {
		t.Fatalf("write into missing dir: %v", err)
	}
	if err := RequireArtifact(path); err != nil {
		t.Errorf("artifact should exist: %v", err)
	}
}

func TestRequireArtifact(t *testing.T) {
	err := RequireArtifact(filepath.Join(t.TempDir(), "absent.csv"))
	if !errors.Is(err, ErrMissingArtifact) {
		t.Errorf("got %v, want ErrMissingArtifact", err)
	}
}

func TestNullDecimalRoundTrip(t *testing.T) {
	null, err := ParseNullDecimal("")
	if err != nil {
		t.Fatal(err)
	}
	if null.Valid {
		t.Error("empty field must parse as null")
	}
	if got := FormatNullDecimal(null); got != "" {
		t.Errorf("null must format empty, got %q", got)
	}

	d, err := ParseNullDecimal("1.85")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Valid || !d.Decimal.Equal(decimal.NewFromFloat(1.85)) {
		t.Errorf("got %+v", d)
	}
	if got := FormatNullDecimal(d); got != "1.85" {
		t.Errorf("got %q", got)
	}
}

func TestParseHelpersTreatEmptyAsZero(t *testing.T) {
	if v, err := ParseInt(""); err != nil || v != 0 {
		t.Errorf("ParseInt: %v %v", v, err)
	}
	if v, err := ParseFloat(""); err != nil || v != 0 {
		t.Errorf("ParseFloat: %v %v", v, err)
	}
	if v, err := ParseBool(""); err != nil || v {
		t.Errorf("ParseBool: %v %v", v, err)
	}
	if _, err := ParseBool("maybe"); err == nil {
		t.Error("expected error for bad bool")
	}
}
