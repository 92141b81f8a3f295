package server

import (
	"time"

	"tomgalvin.uk/monoform/internal/history"
)

// Body of a JSON conversion request. Pixels are R,G,B,A bytes, base64 encoded
// on the wire.
type GenerateRequest struct {
	Pixels        []byte `json:"pixels"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	BottomUp      bool   `json:"bottomUp"`
	Threshold     *int   `json:"threshold"`
	Symbol        string `json:"symbol"`
	Mode          string `json:"mode"`
	Flavor        string `json:"flavor"`
	DisplayWidth  int    `json:"displayWidth"`
	DisplayHeight int    `json:"displayHeight"`
}

type DocumentResponse struct {
	Id        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Mode      string    `json:"mode"`
	Flavor    string    `json:"flavor"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Threshold int       `json:"threshold"`
	Length    int       `json:"length"`
	FileName  string    `json:"fileName"`
	CreatedAt time.Time `json:"createdAt"`
	Document  string    `json:"document,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func FromDocument(d *history.Document) DocumentResponse {
	return DocumentResponse{
		Id:        d.Uuid.String(),
		Symbol:    d.Symbol,
		Mode:      d.Mode.String(),
		Flavor:    d.Flavor.String(),
		Width:     d.Width,
		Height:    d.Height,
		Threshold: d.Threshold,
		Length:    d.Length,
		FileName:  d.FileName(),
		CreatedAt: d.CreatedAt,
		Document:  d.Body,
	}
}
