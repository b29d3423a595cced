package reservation

import "fmt"

// ReservationRequest is the create payload. It is also forwarded verbatim to
// the payment gateway as the confirmation body.
type ReservationRequest struct {
	Date        string `json:"date" binding:"required,datetime=2006-01-02"`
	ThemeID     int64  `json:"themeId" binding:"required,min=1"`
	TimeID      int64  `json:"timeId" binding:"required,min=1"`
	PaymentKey  string `json:"paymentKey" binding:"required"`
	OrderID     string `json:"orderId" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,min=1"`
	PaymentType string `json:"paymentType,omitempty"`
}

// ReservationSearchRequest carries the admin search query string.
type ReservationSearchRequest struct {
	ThemeID  *int64 `form:"themeId" binding:"omitempty,min=1"`
	MemberID *int64 `form:"memberId" binding:"omitempty,min=1"`
	DateFrom string `form:"dateFrom" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"dateTo" binding:"omitempty,datetime=2006-01-02"`
	Waiting  *bool  `form:"waiting"`
}

// Filter converts the request, enforcing dateFrom <= dateTo.
func (r ReservationSearchRequest) Filter() (Filter, error) {
	f := Filter{ThemeID: r.ThemeID, MemberID: r.MemberID}
	if r.DateFrom != "" {
		d, err := ParseDate(r.DateFrom)
		if err != nil {
			return Filter{}, err
		}
		f.DateFrom = &d
	}
	if r.DateTo != "" {
		d, err := ParseDate(r.DateTo)
		if err != nil {
			return Filter{}, err
		}
		f.DateTo = &d
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return Filter{}, fmt.Errorf("%w: dateFrom %s is after dateTo %s", ErrValidation, r.DateFrom, r.DateTo)
	}
	if r.Waiting != nil {
		s := StatusConfirmed
		if *r.Waiting {
			s = StatusWaiting
		}
		f.Status = &s
	}
	return f, nil
}

type MemberInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ThemeInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type TimeInfo struct {
	ID      int64  `json:"id"`
	StartAt string `json:"startAt"`
}

type ReservationResponse struct {
	ID     int64      `json:"id"`
	Member MemberInfo `json:"member"`
	Theme  ThemeInfo  `json:"theme"`
	Date   string     `json:"date"`
	Time   TimeInfo   `json:"time"`
	Status Status     `json:"status"`
}

func NewReservationResponse(r Reservation) ReservationResponse {
	return ReservationResponse{
		ID:     r.ID,
		Member: MemberInfo{ID: r.MemberID, Name: r.MemberName},
		Theme:  ThemeInfo{ID: r.ThemeID, Name: r.ThemeName},
		Date:   r.Date.Format(DateLayout),
		Time:   TimeInfo{ID: r.TimeID, StartAt: r.StartAt},
		Status: r.Status,
	}
}

type ReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
}

func NewReservationsResponse(rs []Reservation) ReservationsResponse {
	out := make([]ReservationResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewReservationResponse(r))
	}
	return ReservationsResponse{Reservations: out}
}

// WaitingWithRankResponse is one of the caller's reservations. Rank is 0 for a
// confirmed booking and the 1-based queue position for a waiting one.
type WaitingWithRankResponse struct {
	ID      int64  `json:"id"`
	Theme   string `json:"theme"`
	Date    string `json:"date"`
	StartAt string `json:"time"`
	Status  Status `json:"status"`
	Rank    int    `json:"rank"`
}

type WaitingWithRanksResponse struct {
	Reservations []WaitingWithRankResponse `json:"reservations"`
}

type ReservationTimeInfoResponse struct {
	TimeID        int64  `json:"timeId"`
	StartAt       string `json:"startAt"`
	AlreadyBooked bool   `json:"alreadyBooked"`
}

type ReservationTimeInfosResponse struct {
	Times []ReservationTimeInfoResponse `json:"times"`
}
