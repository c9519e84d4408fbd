package shorts

import (
	"reflect"
	"testing"
)

func TestUniqueTerms(t *testing.T) {
	v := Video{Comments: []Comment{
		{DetectedTerms: []string{"fr", "bussin"}},
		{DetectedTerms: []string{"bussin", "ngl"}},
		{},
	}}
	got := v.UniqueTerms()
	want := []string{"fr", "bussin", "ngl"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("UniqueTerms() = %v, want %v", got, want)
	}
}

func TestUniqueTermsEmpty(t *testing.T) {
	if got := (Video{}).UniqueTerms(); got != nil {
		t.Fatalf("UniqueTerms() = %v, want nil", got)
	}
}
