/*
Copyright 2026 The ordkv Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package num

import "testing"

func TestFromInt64RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 42, -42, 1<<62 - 1, -(1 << 40)} {
		n := FromInt64(v)
		var lossy bool
		got := n.ToInt64(&lossy)
		if lossy {
			t.Fatalf("FromInt64(%d): unexpected lossy conversion back", v)
		}
		if got != v {
			t.Errorf("FromInt64(%d).ToInt64() = %d, want %d", v, got, v)
		}
	}
}

func TestFromTextBasic(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		isReal bool
	}{
		{"42", "42", false},
		{"-42", "-42", false},
		{"3.14", "3.14", true},
		{"1e3", "1000", true},
		{"-1.5e-2", "-0.015", true},
		{"0", "0", false},
	}
	for _, c := range cases {
		n, isReal := FromText([]byte(c.in), 0)
		if isReal != c.isReal {
			t.Errorf("FromText(%q) isReal = %v, want %v", c.in, isReal, c.isReal)
		}
		if got := n.String(); got != c.want {
			t.Errorf("FromText(%q).String() = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFromTextGarbageIsNaN(t *testing.T) {
	n, isReal := FromText([]byte("not a number"), 0)
	if !n.IsNaN() {
		t.Errorf("FromText(garbage) = %v, want NaN", n)
	}
	if isReal {
		t.Errorf("FromText(garbage) isReal = true, want false")
	}
}

func TestFromTextPrefixOnly(t *testing.T) {
	n, _ := FromText([]byte("123abc"), PrefixOnly)
	if n.String() != "123" {
		t.Errorf("FromText(123abc, PrefixOnly) = %q, want 123", n.String())
	}
	if n2, _ := FromText([]byte("123abc"), 0); !n2.IsNaN() {
		t.Errorf("FromText(123abc) without PrefixOnly should be NaN, got %v", n2)
	}
}

func TestFromTextIgnoreWhitespace(t *testing.T) {
	n, _ := FromText([]byte("  7  "), IgnoreWhitespace)
	if n.String() != "7" {
		t.Errorf("FromText('  7  ') = %q, want 7", n.String())
	}
}

func TestCompareOrdering(t *testing.T) {
	negInf := Inf(1)
	posInf := Inf(0)
	negOne := FromInt64(-1)
	zero := Zero
	one := FromInt64(1)
	nan := NaN()

	ordered := []Num{negInf, negOne, zero, one, posInf}
	for i := 0; i < len(ordered)-1; i++ {
		if got := CompareNum(ordered[i], ordered[i+1]); got != Less {
			t.Errorf("CompareNum(%v, %v) = %v, want Less", ordered[i], ordered[i+1], got)
		}
	}
	if got := CompareNum(nan, zero); got != Incomparable {
		t.Errorf("CompareNum(NaN, 0) = %v, want Incomparable", got)
	}
	if got := CompareNum(nan, nan); got != Incomparable {
		t.Errorf("CompareNum(NaN, NaN) = %v, want Incomparable", got)
	}
	if got := CompareNum(one, one); got != Equal {
		t.Errorf("CompareNum(1, 1) = %v, want Equal", got)
	}
}

func TestArithmetic(t *testing.T) {
	a, b := FromInt64(7), FromInt64(3)
	if got := Add(a, b).String(); got != "10" {
		t.Errorf("7+3 = %q, want 10", got)
	}
	if got := Sub(a, b).String(); got != "4" {
		t.Errorf("7-3 = %q, want 4", got)
	}
	if got := Mul(a, b).String(); got != "21" {
		t.Errorf("7*3 = %q, want 21", got)
	}
	quarter := Div(FromInt64(1), FromInt64(4))
	if got := quarter.String(); got != "0.25" {
		t.Errorf("1/4 = %q, want 0.25", got)
	}
	if quarter.Approx != 0 {
		t.Errorf("1/4 should be exact, got Approx=%d", quarter.Approx)
	}
	third := Div(FromInt64(1), FromInt64(3))
	if third.Approx == 0 {
		t.Errorf("1/3 should set Approx")
	}
}

func TestDivByZero(t *testing.T) {
	if got := Div(FromInt64(5), Zero); !got.IsInf() {
		t.Errorf("5/0 = %v, want Inf", got)
	}
	if got := Div(Zero, Zero); !got.IsNaN() {
		t.Errorf("0/0 = %v, want NaN", got)
	}
}

func TestNaNPropagation(t *testing.T) {
	nan := NaN()
	one := FromInt64(1)
	for _, got := range []Num{Add(nan, one), Sub(one, nan), Mul(nan, one), Div(one, nan)} {
		if !got.IsNaN() {
			t.Errorf("NaN propagation failed: got %v", got)
		}
	}
}
