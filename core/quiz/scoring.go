package quiz

// Score grades answers against questions, position by position.
// An answer is correct only if it is a number equal to the answer key; anything else (string, bool, null, missing) is wrong.
// The score is round(correct/total*100) with halves rounded up.
func Score(questions []Question, answers []interface{}) Result {
	res := Result{
		TotalQuestions: len(questions),
		Results:        make([]QuestionResult, 0, len(questions)),
	}
	for i, q := range questions {
		var answer interface{}
		if i < len(answers) {
			answer = answers[i]
		}
		ok := isCorrect(answer, q.CorrectAnswer)
		if ok {
			res.CorrectAnswers++
		}
		res.Results = append(res.Results, QuestionResult{
			QuestionID:    q.ID,
			UserAnswer:    answer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     ok,
		})
	}
	res.Score = percent(res.CorrectAnswers, res.TotalQuestions)
	return res
}

// percent returns round(c/t*100), halves up, in integer arithmetic.
func percent(c, t int) int {
	if t <= 0 {
		return 0
	}
	return (200*c + t) / (2 * t)
}

func isCorrect(answer interface{}, key int) bool {
	switch v := answer.(type) {
	case float64: // encoding/json numbers
		return v == float64(key)
	case int:
		return v == key
	default:
		return false
	}
}
