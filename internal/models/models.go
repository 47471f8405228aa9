package models

import "time"

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"

	UserRoleAdmin = "admin"
)

// Treatment is one entry of the bookable catalog. Slots keep the order
// they were seeded in; availability answers preserve that order.
type Treatment struct {
	ID    string   `bson:"_id,omitempty" json:"id"`
	Name  string   `bson:"name" json:"name"`
	Price int      `bson:"price" json:"price"`
	Slots []string `bson:"slots" json:"slots"`
}

type Booking struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	PatientName   string    `bson:"patientName" json:"patientName"`
	Email         string    `bson:"email" json:"email"`
	Phone         string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Treatment     string    `bson:"treatment" json:"treatment"`
	AppointDate   string    `bson:"appointDate" json:"appointDate"`
	Slot          string    `bson:"slot" json:"slot"`
	Price         int       `bson:"price" json:"price"`
	PaymentStatus string    `bson:"paymentStatus" json:"paymentStatus"`
	TransactionID string    `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Role      string    `bson:"role,omitempty" json:"role,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Doctor struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Specialty string    `bson:"specialty" json:"specialty"`
	Image     string    `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Payment struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	BookingID     string    `bson:"bookingId" json:"bookingId"`
	Email         string    `bson:"email" json:"email"`
	Price         int       `bson:"price" json:"price"`
	Currency      string    `bson:"currency" json:"currency"`
	TransactionID string    `bson:"transactionId" json:"transactionId"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}
