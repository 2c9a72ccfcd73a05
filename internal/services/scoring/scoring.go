// Package scoring implements farkle dice scoring.
package scoring

import "github.com/mcoot/farklegame/internal/model"

const (
	// StraightScore is awarded for one of each face
	StraightScore = 1500
	// SingleOneScore is awarded for each 1 outside a set
	SingleOneScore = 100
	// SingleFiveScore is awarded for each 5 outside a set
	SingleFiveScore = 50
)

// tripleValues is the three-of-a-kind value per face; index 0 is unused
var tripleValues = [7]int{0, 1000, 200, 300, 400, 500, 600}

// faceCounts holds occurrences per face; index 0 is unused
type faceCounts [7]int

func countFaces(dice []int) faceCounts {
	var counts faceCounts
	for _, d := range dice {
		if d >= 1 && d <= 6 {
			counts[d]++
		}
	}
	return counts
}

// TripleValue returns the three-of-a-kind value for a face, or 0 for an invalid face
func TripleValue(face int) int {
	if face < 1 || face > 6 {
		return 0
	}
	return tripleValues[face]
}

// IsStraight returns true if the dice are exactly one of each face
func IsStraight(dice []int) bool {
	if len(dice) != model.DiceCount {
		return false
	}
	counts := countFaces(dice)
	for face := 1; face <= 6; face++ {
		if counts[face] != 1 {
			return false
		}
	}
	return true
}

// Score returns the points for a set of dice values. Order does not matter.
func Score(dice []int) int {
	if IsStraight(dice) {
		return StraightScore
	}

	counts := countFaces(dice)

	// Six of a kind ends scoring immediately
	for face := 1; face <= 6; face++ {
		if counts[face] == 6 {
			return 4 * tripleValues[face]
		}
	}

	total := 0

	// Sets consume their dice
	for face := 1; face <= 6; face++ {
		switch counts[face] {
		case 5:
			total += 3 * tripleValues[face]
			counts[face] = 0
		case 4:
			total += 2 * tripleValues[face]
			counts[face] = 0
		case 3:
			total += tripleValues[face]
			counts[face] = 0
		}
	}

	// Leftover singles
	total += counts[1] * SingleOneScore
	total += counts[5] * SingleFiveScore

	return total
}

// IsFarkle returns true if a roll scores nothing
func IsFarkle(roll []int) bool {
	return Score(roll) == 0
}

// ValidateSelection checks that every selected die contributes to the score.
// A face appearing fewer than three times that is neither 1 nor 5 invalidates
// the whole selection, except as part of a straight.
func ValidateSelection(selection []int) error {
	if len(selection) == 0 || len(selection) > model.DiceCount {
		return model.ErrInvalidSelection
	}
	if IsStraight(selection) {
		return nil
	}

	counts := countFaces(selection)
	if sum(counts) != len(selection) {
		return model.ErrInvalidSelection
	}
	for face := 1; face <= 6; face++ {
		n := counts[face]
		if n > 0 && n < 3 && face != 1 && face != 5 {
			return model.ErrInvalidSelection
		}
	}

	if Score(selection) == 0 {
		return model.ErrInvalidSelection
	}
	return nil
}

func sum(counts faceCounts) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
