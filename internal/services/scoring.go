package services

// CategorySums holds the per-subscale raw answer sums for one submission.
type CategorySums struct {
	Depression int
	Anxiety    int
	Stress     int
}

// SumByCategory totals answer values per subscale. Answers whose question id
// does not resolve are skipped rather than rejected; Submit validates ids
// strictly before this runs, so the skip only matters for callers that feed it
// unvalidated data.
func SumByCategory(answers []Answer, questions map[string]*Question) CategorySums {
	var sums CategorySums
	for _, ans := range answers {
		q := questions[ans.QuestionID]
		if q == nil {
			continue
		}
		switch q.Category {
		case CategoryDepression:
			sums.Depression += ans.Value
		case CategoryAnxiety:
			sums.Anxiety += ans.Value
		case CategoryStress:
			sums.Stress += ans.Value
		}
	}
	return sums
}

// ScaleScore converts a raw subscale sum to the reported score. DASS-21 items
// are half of the full 42-item instrument, so sums are doubled to land on the
// published DASS-42 severity cutoffs. The factor is fixed, not configurable.
func ScaleScore(rawSum int) int { return rawSum * 2 }

// Classify maps a scaled score onto its clinical severity band. Boundaries are
// inclusive upper bounds per subscale; the top band is unbounded above.
//
//	depression: 0-9 / 10-13 / 14-20 / 21-27 / 28+
//	anxiety:    0-7 / 8-9   / 10-14 / 15-19 / 20+
//	stress:     0-14 / 15-18 / 19-25 / 26-33 / 34+
func Classify(category Category, score int) Severity {
	switch category {
	case CategoryDepression:
		return bandFor(score, 9, 13, 20, 27)
	case CategoryAnxiety:
		return bandFor(score, 7, 9, 14, 19)
	case CategoryStress:
		return bandFor(score, 14, 18, 25, 33)
	}
	return SeverityUnknown
}

func bandFor(score, normal, mild, moderate, severe int) Severity {
	switch {
	case score <= normal:
		return SeverityNormal
	case score <= mild:
		return SeverityMild
	case score <= moderate:
		return SeverityModerate
	case score <= severe:
		return SeveritySevere
	default:
		return SeverityExtreme
	}
}
