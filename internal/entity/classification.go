package entity

// Prediction is one class score produced by an inference call.
type Prediction struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// ClassificationResult holds one entry per known class, in model order.
type ClassificationResult []Prediction
