package model

import "testing"

func TestFileUIDString(t *testing.T) {
	u := FileUID{FileID: 7, CollectionID: 3, UpdationTime: 1690000000000000}
	want := "7_3_1690000000000000"
	if got := u.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestNewFileUIDPinsCollection(t *testing.T) {
	f := File{ID: 1, CollectionID: 5, UpdationTime: 100}
	u := NewFileUID(f, 9)
	if u.CollectionID != 9 {
		t.Fatalf("expected pinned collection 9, got %d", u.CollectionID)
	}
	if u.FileID != 1 || u.UpdationTime != 100 {
		t.Fatalf("unexpected uid: %+v", u)
	}
}

func TestFileTypeString(t *testing.T) {
	cases := map[FileType]string{
		FileTypeImage:     "image",
		FileTypeVideo:     "video",
		FileTypeLivePhoto: "live_photo",
		FileType(99):      "unknown",
	}
	for ft, want := range cases {
		if got := ft.String(); got != want {
			t.Errorf("FileType(%d).String() = %q, want %q", ft, got, want)
		}
	}
}

func TestErrorKindOf(t *testing.T) {
	err := NewError("Materializer.ExportFiles", ErrEtagMissing, nil)
	if KindOf(err) != ErrEtagMissing {
		t.Fatalf("KindOf() = %v, want ErrEtagMissing", KindOf(err))
	}
	if KindOf(nil) != ErrUnknown {
		t.Fatalf("KindOf(nil) should be ErrUnknown")
	}
}
