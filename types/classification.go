package types

// Classification is the normalized result of the food/trash model.
// IsTrash and IsFood are always complements; Confidence is the
// probability mass assigned to the predicted class.
type Classification struct {
	IsTrash    bool    `json:"isTrash"`
	IsFood     bool    `json:"isFood"`
	Confidence float64 `json:"confidence"`
	RawScore   float64 `json:"rawScore"`
}
