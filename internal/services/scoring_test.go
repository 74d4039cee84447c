package services

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		category Category
		score    int
		want     Severity
	}{
		{CategoryDepression, 0, SeverityNormal},
		{CategoryDepression, 9, SeverityNormal},
		{CategoryDepression, 10, SeverityMild},
		{CategoryDepression, 13, SeverityMild},
		{CategoryDepression, 14, SeverityModerate},
		{CategoryDepression, 20, SeverityModerate},
		{CategoryDepression, 21, SeveritySevere},
		{CategoryDepression, 27, SeveritySevere},
		{CategoryDepression, 28, SeverityExtreme},
		{CategoryDepression, 100, SeverityExtreme},

		{CategoryAnxiety, 7, SeverityNormal},
		{CategoryAnxiety, 8, SeverityMild},
		{CategoryAnxiety, 9, SeverityMild},
		{CategoryAnxiety, 10, SeverityModerate},
		{CategoryAnxiety, 14, SeverityModerate},
		{CategoryAnxiety, 15, SeveritySevere},
		{CategoryAnxiety, 19, SeveritySevere},
		{CategoryAnxiety, 20, SeverityExtreme},

		{CategoryStress, 14, SeverityNormal},
		{CategoryStress, 15, SeverityMild},
		{CategoryStress, 18, SeverityMild},
		{CategoryStress, 19, SeverityModerate},
		{CategoryStress, 25, SeverityModerate},
		{CategoryStress, 26, SeveritySevere},
		{CategoryStress, 33, SeveritySevere},
		{CategoryStress, 34, SeverityExtreme},
		{CategoryStress, 40, SeverityExtreme},
	}
	for _, tc := range cases {
		if got := Classify(tc.category, tc.score); got != tc.want {
			t.Errorf("Classify(%s, %d) = %s, want %s", tc.category, tc.score, got, tc.want)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	rank := map[Severity]int{
		SeverityNormal:   0,
		SeverityMild:     1,
		SeverityModerate: 2,
		SeveritySevere:   3,
		SeverityExtreme:  4,
	}
	for _, cat := range []Category{CategoryDepression, CategoryAnxiety, CategoryStress} {
		prev := -1
		for score := 0; score <= 50; score++ {
			r, ok := rank[Classify(cat, score)]
			if !ok {
				t.Fatalf("Classify(%s, %d) returned unranked severity", cat, score)
			}
			if r < prev {
				t.Fatalf("severity for %s decreased at score %d", cat, score)
			}
			prev = r
		}
	}
}

func TestClassifyUnknownCategory(t *testing.T) {
	if got := Classify(Category("mindfulness"), 10); got != SeverityUnknown {
		t.Fatalf("Classify unknown category = %s, want %s", got, SeverityUnknown)
	}
}

func TestSumByCategorySkipsUnknownQuestions(t *testing.T) {
	questions := map[string]*Question{
		"q1": {ID: "q1", Category: CategoryDepression},
		"q2": {ID: "q2", Category: CategoryAnxiety},
		"q3": {ID: "q3", Category: CategoryStress},
	}
	answers := []Answer{
		{QuestionID: "q1", Value: 3},
		{QuestionID: "q2", Value: 2},
		{QuestionID: "q3", Value: 1},
		{QuestionID: "deleted", Value: 3},
	}
	sums := SumByCategory(answers, questions)
	if sums.Depression != 3 || sums.Anxiety != 2 || sums.Stress != 1 {
		t.Fatalf("sums = %+v, want {3 2 1}", sums)
	}
}

func TestScaleScoreIsDoubledAndEven(t *testing.T) {
	for raw := 0; raw <= 21; raw++ {
		score := ScaleScore(raw)
		if score != raw*2 {
			t.Fatalf("ScaleScore(%d) = %d, want %d", raw, score, raw*2)
		}
		if score%2 != 0 || score < 0 {
			t.Fatalf("ScaleScore(%d) = %d is not an even non-negative value", raw, score)
		}
	}
}
