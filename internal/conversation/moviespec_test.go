package conversation

import (
	"errors"
	"testing"
)

func TestParseMovieSpec(t *testing.T) {
	cases := []struct {
		in   string
		want MovieSpec
		err  bool
	}{
		{in: "7;ref123;Inception;Sci-Fi", want: MovieSpec{"7", "ref123", "Inception", "Sci-Fi"}},
		{in: "7;ref123;Inception", want: MovieSpec{"7", "ref123", "Inception", ""}},
		{in: " 7 ; ref ; Title ; Cat ", want: MovieSpec{"7", "ref", "Title", "Cat"}},
		{in: "8;ref;Tom; Jerry;Cartoon", want: MovieSpec{"8", "ref", "Tom; Jerry", "Cartoon"}},
		{in: "9;ref;Title;", want: MovieSpec{"9", "ref", "Title", ""}},
		{in: "7;ref123", err: true},
		{in: "7", err: true},
		{in: "", err: true},
		{in: ";ref;Title", err: true},
		{in: "7;;Title", err: true},
		{in: "7;ref; ;Cat", err: true},
	}
	for _, c := range cases {
		got, err := ParseMovieSpec(c.in)
		if c.err {
			if !errors.Is(err, ErrMalformedSpec) {
				t.Fatalf("%q: want ErrMalformedSpec, got %v", c.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%q: want %+v got %+v", c.in, c.want, got)
		}
	}
}
