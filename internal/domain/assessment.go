package domain

// CategoryLabel is the result of categorizing a transaction description.
type CategoryLabel struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// FraudAssessment is an externally computed verdict about one transaction.
type FraudAssessment struct {
	IsFraudulent bool    `json:"isFraudulent"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}
