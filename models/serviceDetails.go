package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/travel_backend/utils"
	"gorm.io/datatypes"
)

// ServiceDetails is the per-service payload of a booking. Each service type has
// exactly one variant; the variant is selected by Booking.ServiceType.
type ServiceDetails interface {
	ServiceType() ServiceType
	Describe() string
	validate() error
}

type FlightDetails struct {
	Airline      string     `json:"airline"`
	FlightNumber string     `json:"flight_number"`
	Pnr          string     `json:"pnr"`
	Origin       string     `json:"origin"`
	Destination  string     `json:"destination"`
	DepartureAt  *time.Time `json:"departure_at,omitempty"`
	ReturnAt     *time.Time `json:"return_at,omitempty"`
	CabinClass   string     `json:"cabin_class,omitempty"`
	Passengers   int        `json:"passengers"`
}

type HotelDetails struct {
	HotelName  string     `json:"hotel_name"`
	City       string     `json:"city"`
	CheckIn    *time.Time `json:"check_in,omitempty"`
	CheckOut   *time.Time `json:"check_out,omitempty"`
	Rooms      int        `json:"rooms"`
	Guests     int        `json:"guests"`
	RoomType   string     `json:"room_type,omitempty"`
	BoardBasis string     `json:"board_basis,omitempty"`
}

type VisaDetails struct {
	Country        string `json:"country"`
	VisaType       string `json:"visa_type"`
	Applicants     int    `json:"applicants"`
	ProcessingDays int    `json:"processing_days,omitempty"`
}

type TransferDetails struct {
	PickupLocation  string     `json:"pickup_location"`
	DropoffLocation string     `json:"dropoff_location"`
	PickupAt        *time.Time `json:"pickup_at,omitempty"`
	VehicleType     string     `json:"vehicle_type,omitempty"`
	Passengers      int        `json:"passengers"`
}

type CruiseDetails struct {
	CruiseLine    string     `json:"cruise_line"`
	ShipName      string     `json:"ship_name"`
	DeparturePort string     `json:"departure_port"`
	SailingDate   *time.Time `json:"sailing_date,omitempty"`
	Nights        int        `json:"nights"`
	CabinType     string     `json:"cabin_type,omitempty"`
}

type RentalCarDetails struct {
	Company         string     `json:"company"`
	PickupLocation  string     `json:"pickup_location"`
	DropoffLocation string     `json:"dropoff_location"`
	PickupAt        *time.Time `json:"pickup_at,omitempty"`
	DropoffAt       *time.Time `json:"dropoff_at,omitempty"`
	CarClass        string     `json:"car_class,omitempty"`
}

type TrainDetails struct {
	Operator    string     `json:"operator"`
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	DepartureAt *time.Time `json:"departure_at,omitempty"`
	SeatClass   string     `json:"seat_class,omitempty"`
	Passengers  int        `json:"passengers"`
}

type ActivityDetails struct {
	Name         string     `json:"name"`
	Location     string     `json:"location"`
	ActivityDate *time.Time `json:"activity_date,omitempty"`
	Participants int        `json:"participants"`
}

func (FlightDetails) ServiceType() ServiceType    { return ServiceTypeFlight }
func (HotelDetails) ServiceType() ServiceType     { return ServiceTypeHotel }
func (VisaDetails) ServiceType() ServiceType      { return ServiceTypeVisa }
func (TransferDetails) ServiceType() ServiceType  { return ServiceTypeTransfer }
func (CruiseDetails) ServiceType() ServiceType    { return ServiceTypeCruise }
func (RentalCarDetails) ServiceType() ServiceType { return ServiceTypeRentalCar }
func (TrainDetails) ServiceType() ServiceType     { return ServiceTypeTrain }
func (ActivityDetails) ServiceType() ServiceType  { return ServiceTypeActivity }

func (d FlightDetails) Describe() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s-%s", d.Airline, d.FlightNumber, d.Origin, d.Destination))
}

func (d HotelDetails) Describe() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", d.HotelName, d.City))
}

func (d VisaDetails) Describe() string {
	return strings.TrimSpace(fmt.Sprintf("%s visa %s", d.Country, d.VisaType))
}

func (d TransferDetails) Describe() string {
	return fmt.Sprintf("transfer %s to %s", d.PickupLocation, d.DropoffLocation)
}

func (d CruiseDetails) Describe() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %d nights", d.CruiseLine, d.ShipName, d.Nights))
}

func (d RentalCarDetails) Describe() string {
	return strings.TrimSpace(fmt.Sprintf("%s car %s", d.Company, d.PickupLocation))
}

func (d TrainDetails) Describe() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s-%s", d.Operator, d.Origin, d.Destination))
}

func (d ActivityDetails) Describe() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", d.Name, d.Location))
}

func (d FlightDetails) validate() error {
	if d.Origin == "" || d.Destination == "" {
		return utils.NewValidationError("service_details", "flight origin and destination are required")
	}
	if d.DepartureAt != nil && d.ReturnAt != nil && d.ReturnAt.Before(*d.DepartureAt) {
		return utils.NewValidationError("service_details", "return must not be before departure")
	}
	return nil
}

func (d HotelDetails) validate() error {
	if d.HotelName == "" {
		return utils.NewValidationError("service_details", "hotel name is required")
	}
	if d.CheckIn != nil && d.CheckOut != nil && !d.CheckOut.After(*d.CheckIn) {
		return utils.NewValidationError("service_details", "check out must be after check in")
	}
	return nil
}

func (d VisaDetails) validate() error {
	if d.Country == "" {
		return utils.NewValidationError("service_details", "visa country is required")
	}
	return nil
}

func (d TransferDetails) validate() error {
	if d.PickupLocation == "" || d.DropoffLocation == "" {
		return utils.NewValidationError("service_details", "pickup and dropoff locations are required")
	}
	return nil
}

func (d CruiseDetails) validate() error {
	if d.CruiseLine == "" {
		return utils.NewValidationError("service_details", "cruise line is required")
	}
	return nil
}

func (d RentalCarDetails) validate() error {
	if d.PickupAt != nil && d.DropoffAt != nil && d.DropoffAt.Before(*d.PickupAt) {
		return utils.NewValidationError("service_details", "dropoff must not be before pickup")
	}
	return nil
}

func (d TrainDetails) validate() error {
	if d.Origin == "" || d.Destination == "" {
		return utils.NewValidationError("service_details", "train origin and destination are required")
	}
	return nil
}

func (d ActivityDetails) validate() error {
	if d.Name == "" {
		return utils.NewValidationError("service_details", "activity name is required")
	}
	return nil
}

func newServiceDetails(t ServiceType) (ServiceDetails, error) {
	switch t {
	case ServiceTypeFlight:
		return &FlightDetails{}, nil
	case ServiceTypeHotel:
		return &HotelDetails{}, nil
	case ServiceTypeVisa:
		return &VisaDetails{}, nil
	case ServiceTypeTransfer:
		return &TransferDetails{}, nil
	case ServiceTypeCruise:
		return &CruiseDetails{}, nil
	case ServiceTypeRentalCar:
		return &RentalCarDetails{}, nil
	case ServiceTypeTrain:
		return &TrainDetails{}, nil
	case ServiceTypeActivity:
		return &ActivityDetails{}, nil
	}
	return nil, utils.NewValidationError("service_type", "invalid service type %q", t)
}

// DecodeServiceDetails parses raw into the variant for t. Fields belonging to
// another variant are rejected. Empty input yields the zero variant.
func DecodeServiceDetails(t ServiceType, raw []byte) (ServiceDetails, error) {
	d, err := newServiceDetails(t)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return d, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(d); err != nil {
		return nil, utils.NewValidationError("service_details", "invalid %s details: %s", t, err.Error())
	}
	return d, nil
}

// ValidateServiceDetails decodes and checks raw details against t.
func ValidateServiceDetails(t ServiceType, raw []byte) (datatypes.JSON, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	d, err := DecodeServiceDetails(t, raw)
	if err != nil {
		return nil, err
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return EncodeServiceDetails(d)
}

func EncodeServiceDetails(d ServiceDetails) (datatypes.JSON, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
