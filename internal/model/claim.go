package model

// CodeResponse is the body of GET /api/customercode.
type CodeResponse struct {
	Code string `json:"code"`
}

// ClaimRequest is the body of POST /api/customercode/claim.
type ClaimRequest struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// CardResponse is the body of GET /api/stampcard/{id}.
type CardResponse struct {
	Stamps   int `json:"stamps"`
	Capacity int `json:"capacity"`
}

// NewCardResponse builds the public view of a card.
func NewCardResponse(card StampCard) CardResponse {
	return CardResponse{
		Stamps:   card.Stamps,
		Capacity: card.Capacity,
	}
}
