package api

import (
	"context"
	"fmt"
	"net/url"

	"staybook/internal/models"
	"staybook/internal/search"
)

func (c *Client) SearchHotels(ctx context.Context, q models.SearchQuery) ([]models.Hotel, error) {
	query := search.Encode(q)
	cacheKey := "search:" + query
	var hotels []models.Hotel

	if c.readCache(ctx, cacheKey, &hotels) {
		return hotels, nil
	}

	var dtos []hotelDTO
	if err := c.doGet(ctx, "search_hotels", "/hotels/search?"+query, &dtos); err != nil {
		return nil, err
	}
	hotels = make([]models.Hotel, 0, len(dtos))
	for _, d := range dtos {
		hotels = append(hotels, d.toModel())
	}
	c.writeCache(ctx, cacheKey, hotels)
	return hotels, nil
}

func (c *Client) GetHotel(ctx context.Context, id string) (*models.Hotel, error) {
	cacheKey := "hotel:" + id
	var hotel models.Hotel

	if c.readCache(ctx, cacheKey, &hotel) {
		return &hotel, nil
	}

	var dto hotelDTO
	if err := c.doGet(ctx, "get_hotel", "/hotels/"+url.PathEscape(id), &dto); err != nil {
		return nil, err
	}
	hotel = dto.toModel()
	c.writeCache(ctx, cacheKey, hotel)
	return &hotel, nil
}

// Recommendations are per user and never cached.
func (c *Client) Recommendations(ctx context.Context, limit int) ([]models.Recommendation, error) {
	path := "/recommendations"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var dtos []recommendationDTO
	if err := c.doGet(ctx, "recommendations", path, &dtos); err != nil {
		return nil, err
	}
	out := make([]models.Recommendation, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel())
	}
	return out, nil
}
