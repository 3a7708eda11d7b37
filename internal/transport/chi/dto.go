package chi

import (
	searchuc "github.com/kailas-cloud/stylist/internal/usecase/search"
)

type textSearchRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

type searchResultItem struct {
	Idx         int     `json:"idx"`
	Score       float32 `json:"score"`
	ImagePath   string  `json:"image_path"`
	DisplayName string  `json:"display_name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

type searchResponse struct {
	Query   string             `json:"query"`
	Results []searchResultItem `json:"results"`
	RAGText string             `json:"rag_text"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type rootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

func searchResponseFromUsecase(resp searchuc.Response) searchResponse {
	items := make([]searchResultItem, len(resp.Results))
	for i, r := range resp.Results {
		items[i] = searchResultItem{
			Idx:         r.Slot,
			Score:       r.Score,
			ImagePath:   r.Item.ImagePath,
			DisplayName: r.Item.DisplayName,
			Category:    r.Item.Category,
			Description: r.Item.Description,
		}
	}
	return searchResponse{Query: resp.Query, Results: items, RAGText: resp.RAGText}
}
