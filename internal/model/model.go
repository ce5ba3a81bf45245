// Package model defines the core domain types for the tour booking system.
package model

import "time"

// BookingStatus is the lifecycle state of a reservation.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known booking states.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks whether a booking has been paid for.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Role is the authorisation level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Booking represents one tour reservation.
type Booking struct {
	ID             string        `json:"id" bson:"_id"`
	TourID         string        `json:"tourId" bson:"tourId"`
	TourName       string        `json:"tourName,omitempty" bson:"tourName,omitempty"`
	UserEmail      string        `json:"userEmail" bson:"userEmail"`
	UserName       string        `json:"userName,omitempty" bson:"userName,omitempty"`
	TravelDate     time.Time     `json:"travelDate" bson:"travelDate"`
	Guests         int           `json:"guests" bson:"guests"`
	PricePerPerson *float64      `json:"pricePerPerson,omitempty" bson:"pricePerPerson,omitempty"`
	OriginalTotal  *float64      `json:"originalTotal,omitempty" bson:"originalTotal,omitempty"`
	FinalPrice     *float64      `json:"finalPrice,omitempty" bson:"finalPrice,omitempty"`
	CouponCode     string        `json:"couponCode,omitempty" bson:"couponCode,omitempty"`
	Status         BookingStatus `json:"status" bson:"status"`
	PaymentStatus  PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	TransactionID  string        `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Payment is the record of one completed provider transaction.
type Payment struct {
	ID            string    `json:"id" bson:"_id"`
	TransactionID string    `json:"transactionId" bson:"transactionId"`
	BookingID     string    `json:"bookingId,omitempty" bson:"bookingId,omitempty"`
	TourID        string    `json:"tourId,omitempty" bson:"tourId,omitempty"`
	UserEmail     string    `json:"userEmail,omitempty" bson:"userEmail,omitempty"`
	Amount        int64     `json:"amount" bson:"amount"`
	Currency      string    `json:"currency" bson:"currency"`
	PaymentStatus string    `json:"paymentStatus" bson:"paymentStatus"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

// Profile holds the user-editable account fields.
type Profile struct {
	Name        string `json:"name,omitempty" bson:"name,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
	Phone       string `json:"phone,omitempty" bson:"phone,omitempty"`
	Country     string `json:"country,omitempty" bson:"country,omitempty"`
	TravelStyle string `json:"travelStyle,omitempty" bson:"travelStyle,omitempty"`
	Bio         string `json:"bio,omitempty" bson:"bio,omitempty"`
}

// User is one account, keyed by email.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	Role      Role      `json:"role" bson:"role"`
	Profile   Profile   `json:"profile" bson:"profile"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ─── Store-level inputs ──────────────────────────────────────────────────────

// BookingFilter narrows a booking listing. Zero values match everything.
type BookingFilter struct {
	UserEmail string
	Status    BookingStatus
	Limit     int
}

// BookingChanges is a partial update; nil fields are left untouched.
type BookingChanges struct {
	TravelDate     *time.Time
	Guests         *int
	PricePerPerson *float64
	OriginalTotal  *float64
	FinalPrice     *float64
	CouponCode     *string
	Status         *BookingStatus
}

// Empty reports whether no field is set.
func (c BookingChanges) Empty() bool {
	return c.TravelDate == nil && c.Guests == nil && c.PricePerPerson == nil &&
		c.OriginalTotal == nil && c.FinalPrice == nil && c.CouponCode == nil && c.Status == nil
}

// ProfileChanges is a partial profile update; nil fields are left untouched.
type ProfileChanges struct {
	Name        *string
	PhotoURL    *string
	Phone       *string
	Country     *string
	TravelStyle *string
	Bio         *string
}

// Empty reports whether no field is set.
func (c ProfileChanges) Empty() bool {
	return c.Name == nil && c.PhotoURL == nil && c.Phone == nil &&
		c.Country == nil && c.TravelStyle == nil && c.Bio == nil
}

// Apply copies the set fields onto p.
func (c ProfileChanges) Apply(p *Profile) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.PhotoURL != nil {
		p.PhotoURL = *c.PhotoURL
	}
	if c.Phone != nil {
		p.Phone = *c.Phone
	}
	if c.Country != nil {
		p.Country = *c.Country
	}
	if c.TravelStyle != nil {
		p.TravelStyle = *c.TravelStyle
	}
	if c.Bio != nil {
		p.Bio = *c.Bio
	}
}

// PaymentFilter narrows a payment listing.
type PaymentFilter struct {
	UserEmail string
	Limit     int
}

// MonthlyCount is the number of bookings created in one calendar month.
type MonthlyCount struct {
	Year  int   `json:"year" bson:"year"`
	Month int   `json:"month" bson:"month"`
	Count int64 `json:"count" bson:"count"`
}

// ─── Payment provider ────────────────────────────────────────────────────────

// SessionMetadata is attached to a checkout session so it can be reconciled
// without re-reading the booking.
type SessionMetadata struct {
	BookingID string
	TourID    string
	UserEmail string
}

// CheckoutSessionRequest describes a provider checkout session to create.
type CheckoutSessionRequest struct {
	Currency      string
	ItemName      string
	UnitAmount    int64
	CustomerEmail string
	Metadata      SessionMetadata
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is a created provider session.
type CheckoutSession struct {
	ID  string
	URL string
}

// ProviderSession is the provider's view of a session when it is retrieved.
type ProviderSession struct {
	ID              string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	Metadata        SessionMetadata
	PaymentStatus   string
	CustomerEmail   string
}

// ─── Requests ────────────────────────────────────────────────────────────────

// CreateBookingRequest is the payload for creating a booking.
type CreateBookingRequest struct {
	TourID         string   `json:"tourId"`
	TourName       string   `json:"tourName"`
	UserEmail      string   `json:"userEmail"`
	UserName       string   `json:"userName"`
	TravelDate     string   `json:"travelDate"`
	Guests         int      `json:"guests"`
	PricePerPerson *float64 `json:"pricePerPerson"`
	OriginalTotal  *float64 `json:"originalTotal"`
	FinalPrice     *float64 `json:"finalPrice"`
	CouponCode     string   `json:"couponCode"`
}

// UpdateBookingRequest is the payload for a partial booking update.
type UpdateBookingRequest struct {
	TravelDate     *string        `json:"travelDate"`
	Guests         *int           `json:"guests"`
	PricePerPerson *float64       `json:"pricePerPerson"`
	OriginalTotal  *float64       `json:"originalTotal"`
	FinalPrice     *float64       `json:"finalPrice"`
	CouponCode     *string        `json:"couponCode"`
	Status         *BookingStatus `json:"status"`
}

// SaveUserRequest is the login/registration payload.
type SaveUserRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhotoURL    string `json:"photoUrl"`
	Phone       string `json:"phone"`
	Country     string `json:"country"`
	TravelStyle string `json:"travelStyle"`
	Bio         string `json:"bio"`
}

// UpdateProfileRequest is the profile edit payload. Email and Role are
// accepted on the wire but never applied.
type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	PhotoURL    *string `json:"photoUrl"`
	Phone       *string `json:"phone"`
	Country     *string `json:"country"`
	TravelStyle *string `json:"travelStyle"`
	Bio         *string `json:"bio"`
	Email       *string `json:"email"`
	Role        *string `json:"role"`
}

// CheckoutRequest asks for a hosted checkout page for a booking.
type CheckoutRequest struct {
	BookingID string `json:"bookingId"`
}

// ConfirmPaymentRequest carries the session id returned by the provider.
type ConfirmPaymentRequest struct {
	SessionID string `json:"sessionId"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

// CheckoutResponse is the redirect target for the client.
type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// Outcome is the terminal result of reconciling a session.
type Outcome string

const (
	OutcomeAlreadyRecorded Outcome = "already_recorded"
	OutcomeConfirmed       Outcome = "confirmed"
	OutcomeNotPaid         Outcome = "not_paid"
)

// ReconciliationResult reports what Confirm did.
type ReconciliationResult struct {
	Outcome       Outcome  `json:"outcome"`
	TransactionID string   `json:"transactionId,omitempty"`
	PaymentID     string   `json:"paymentId,omitempty"`
	PaymentStatus string   `json:"paymentStatus"`
	Payment       *Payment `json:"payment,omitempty"`
	Booking       *Booking `json:"booking,omitempty"`
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalBookings     int64          `json:"totalBookings"`
	ConfirmedBookings int64          `json:"confirmedBookings"`
	PendingBookings   int64          `json:"pendingBookings"`
	CancelledBookings int64          `json:"cancelledBookings"`
	TotalUsers        int64          `json:"totalUsers"`
	TotalRevenue      int64          `json:"totalRevenue"`
	RecentBookings    []Booking      `json:"recentBookings"`
	MonthlyBookings   []MonthlyCount `json:"monthlyBookings"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// PaymentConfirmedEvent is published after a booking's payment is recorded.
type PaymentConfirmedEvent struct {
	Event         string    `json:"event"`
	OccurredAt    time.Time `json:"occurredAt"`
	PaymentID     string    `json:"paymentId"`
	TransactionID string    `json:"transactionId"`
	BookingID     string    `json:"bookingId,omitempty"`
	TourID        string    `json:"tourId,omitempty"`
	UserEmail     string    `json:"userEmail,omitempty"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
}
