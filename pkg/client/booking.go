package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"campus/pkg/model"
)

const bookingPrefix = "/api/booking"

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("booking api: %d %s", e.StatusCode, e.Message)
}

// BookingClient talks to the booking service. Admin endpoints need a token
// set through WithToken.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseURL string) *BookingClient {
	return &BookingClient{httpClient: NewHttpClient(baseURL)}
}

func (c *BookingClient) WithToken(token string) *BookingClient {
	hc := *c.httpClient
	hc.Token = token
	return &BookingClient{httpClient: &hc}
}

func (c *BookingClient) HTTP() *HttpClient {
	return c.httpClient
}

func (c *BookingClient) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	var out struct {
		Booking model.Booking `json:"booking"`
	}
	if err := c.call(ctx, http.MethodPost, bookingPrefix, req, &out); err != nil {
		return nil, err
	}
	return &out.Booking, nil
}

func (c *BookingClient) ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.BookingView, error) {
	q := url.Values{}
	if filter.Room != "" {
		q.Set("room", filter.Room)
	}
	if filter.Date != "" {
		q.Set("date", filter.Date)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	path := bookingPrefix + "/bookings"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Bookings []model.BookingView `json:"bookings"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Bookings, nil
}

func (c *BookingClient) ListBookingsByUser(ctx context.Context, userID string) ([]model.BookingView, error) {
	var out struct {
		Bookings []model.BookingView `json:"bookings"`
	}
	path := bookingPrefix + "/bookings/user/" + url.PathEscape(userID)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Bookings, nil
}

func (c *BookingClient) GetBooking(ctx context.Context, id string) (*model.BookingView, error) {
	var out struct {
		Booking model.BookingView `json:"booking"`
	}
	if err := c.call(ctx, http.MethodGet, bookingPrefix+"/bookings/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Booking, nil
}

func (c *BookingClient) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	var out struct {
		Booking model.Booking `json:"booking"`
	}
	path := bookingPrefix + "/" + url.PathEscape(id) + "/status"
	if err := c.call(ctx, http.MethodPatch, path, model.UpdateStatusRequest{Status: status}, &out); err != nil {
		return nil, err
	}
	return &out.Booking, nil
}

func (c *BookingClient) DeleteBooking(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, bookingPrefix+"/bookings/"+url.PathEscape(id), nil, nil)
}

func (c *BookingClient) AddRoom(ctx context.Context, room model.Room) (*model.Room, error) {
	var out struct {
		Room model.Room `json:"room"`
	}
	if err := c.call(ctx, http.MethodPost, bookingPrefix+"/add-room", room, &out); err != nil {
		return nil, err
	}
	return &out.Room, nil
}

func (c *BookingClient) AddManyRooms(ctx context.Context, rooms []model.Room) ([]model.Room, error) {
	var out struct {
		Rooms []model.Room `json:"rooms"`
	}
	if err := c.call(ctx, http.MethodPost, bookingPrefix+"/add-many-rooms", rooms, &out); err != nil {
		return nil, err
	}
	return out.Rooms, nil
}

func (c *BookingClient) GetAllRooms(ctx context.Context) ([]model.Room, error) {
	var out struct {
		Rooms []model.Room `json:"rooms"`
	}
	if err := c.call(ctx, http.MethodGet, bookingPrefix+"/get-all-rooms", nil, &out); err != nil {
		return nil, err
	}
	return out.Rooms, nil
}

func (c *BookingClient) call(ctx context.Context, method, path string, body, target any) error {
	resp, err := c.httpClient.request(ctx, method, path, body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: GetErrorMessage(resp)}
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return fmt.Errorf("could not decode response %s: %w", resp, err)
	}
	return nil
}
