package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// KYC statuses
const (
	KYCPending  = "Pending"
	KYCApproved = "Approved"
	KYCRejected = "Rejected"
)

const DefaultRole = "user"

// Field names shared by the schema, the indexes and the bulk translator.
const (
	FieldID            = "_id"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldFullName      = "fullName"
	FieldPassword      = "password"
	FieldRole          = "role"
	FieldWalletBalance = "walletBalance"
	FieldIsBlocked     = "isBlocked"
	FieldKYCStatus     = "kycStatus"
	FieldDeviceInfo    = "deviceInfo"
	FieldCreatedAt     = "createdAt"
	FieldUpdatedAt     = "updatedAt"
)

// User is the stored record.
type User struct {
	ID            primitive.ObjectID `bson:"_id" json:"_id"`
	FullName      string             `bson:"fullName" json:"fullName"`
	Email         string             `bson:"email" json:"email"`
	Password      string             `bson:"password" json:"-"`
	Role          string             `bson:"role" json:"role"`
	Phone         string             `bson:"phone" json:"phone"`
	WalletBalance float64            `bson:"walletBalance" json:"walletBalance"`
	IsBlocked     bool               `bson:"isBlocked" json:"isBlocked"`
	KYCStatus     string             `bson:"kycStatus" json:"kycStatus"`
	DeviceInfo    *DeviceInfo        `bson:"deviceInfo,omitempty" json:"deviceInfo,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type DeviceInfo struct {
	IPAddress  string `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	DeviceType string `bson:"deviceType,omitempty" json:"deviceType,omitempty" validate:"omitempty,oneof=Mobile Desktop"`
	OS         string `bson:"os,omitempty" json:"os,omitempty" validate:"omitempty,oneof=Android iOS Windows macOS"`
}

// UserInput is a candidate record as submitted to bulk-create.
type UserInput struct {
	FullName      string      `json:"fullName" validate:"required,min=3"`
	Email         string      `json:"email" validate:"required,useremail"`
	Password      string      `json:"password" validate:"required"`
	Role          string      `json:"role"`
	Phone         string      `json:"phone" validate:"required,digits10"`
	WalletBalance *float64    `json:"walletBalance" validate:"omitempty,min=0"`
	IsBlocked     *bool       `json:"isBlocked"`
	KYCStatus     string      `json:"kycStatus" validate:"omitempty,oneof=Pending Approved Rejected"`
	DeviceInfo    *DeviceInfo `json:"deviceInfo"`
}

// DecodeUserInput decodes one element of a bulk-create body. Shape and type
// problems are reported as messages rather than errors.
func DecodeUserInput(raw json.RawMessage) (*UserInput, []string) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, []string{"record must be an object"}
	}

	var in UserInput
	if err := json.Unmarshal(trimmed, &in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, []string{fmt.Sprintf("%s must be %s", typeErr.Field, jsonKind(typeErr.Type))}
		}
		return nil, []string{"record is not valid JSON"}
	}
	return &in, nil
}

// Validate normalizes the input in place and returns every field message.
func (in *UserInput) Validate() []string {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Role = strings.TrimSpace(in.Role)

	if err := GetValidator().Struct(in); err != nil {
		return FormatValidationErrors(err)
	}
	return nil
}

// ToUser applies schema defaults and assigns identity and timestamps.
func (in *UserInput) ToUser(now time.Time) *User {
	u := &User{
		ID:         primitive.NewObjectID(),
		FullName:   in.FullName,
		Email:      in.Email,
		Password:   in.Password,
		Role:       in.Role,
		Phone:      in.Phone,
		KYCStatus:  in.KYCStatus,
		DeviceInfo: in.DeviceInfo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if u.Role == "" {
		u.Role = DefaultRole
	}
	if u.KYCStatus == "" {
		u.KYCStatus = KYCPending
	}
	if in.WalletBalance != nil {
		u.WalletBalance = *in.WalletBalance
	}
	if in.IsBlocked != nil {
		u.IsBlocked = *in.IsBlocked
	}
	return u
}

// ValidateUpdateFields checks the field values of an updateOne/updateMany
// payload against the schema, normalizing known fields in place. Unknown
// fields are left untouched; updatedAt is dropped because the server owns it.
func ValidateUpdateFields(fields bson.M) []string {
	var messages []string
	for key, value := range fields {
		switch {
		case strings.HasPrefix(key, "$"):
			messages = append(messages, fmt.Sprintf("update operator %q is not supported, provide field values", key))
		case key == FieldID || key == FieldCreatedAt:
			messages = append(messages, key+" cannot be updated")
		case key == FieldUpdatedAt:
			delete(fields, key)
		case key == FieldDeviceInfo:
			sub, ok := asDocument(value)
			if !ok {
				if value != nil {
					messages = append(messages, "deviceInfo must be an object")
				}
				continue
			}
			for subKey, subValue := range sub {
				if msg := checkDeviceField(subKey, subValue); msg != "" {
					messages = append(messages, msg)
				}
			}
		case strings.HasPrefix(key, FieldDeviceInfo+"."):
			if msg := checkDeviceField(strings.TrimPrefix(key, FieldDeviceInfo+"."), value); msg != "" {
				messages = append(messages, msg)
			}
		default:
			normalized, msg := checkField(key, value)
			if msg != "" {
				messages = append(messages, msg)
				continue
			}
			if normalized != nil {
				fields[key] = normalized
			}
		}
	}
	return messages
}

// checkField validates a top-level field. It returns the normalized value when
// normalization applies.
func checkField(key string, value interface{}) (interface{}, string) {
	v := GetValidator()
	switch key {
	case FieldFullName:
		s, ok := value.(string)
		if !ok {
			return nil, "fullName must be a string"
		}
		s = strings.TrimSpace(s)
		if err := v.Var(s, "required,min=3"); err != nil {
			return nil, varMessage(key, err)
		}
		return s, ""
	case FieldEmail:
		s, ok := value.(string)
		if !ok {
			return nil, "email must be a string"
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if err := v.Var(s, "required,useremail"); err != nil {
			return nil, varMessage(key, err)
		}
		return s, ""
	case FieldPhone:
		s, ok := value.(string)
		if !ok {
			return nil, "phone must be a string"
		}
		s = strings.TrimSpace(s)
		if err := v.Var(s, "required,digits10"); err != nil {
			return nil, varMessage(key, err)
		}
		return s, ""
	case FieldPassword:
		s, ok := value.(string)
		if !ok || s == "" {
			return nil, "Password is required"
		}
	case FieldRole:
		if _, ok := value.(string); !ok {
			return nil, "role must be a string"
		}
	case FieldWalletBalance:
		f, ok := asNumber(value)
		if !ok {
			return nil, "walletBalance must be a number"
		}
		if err := v.Var(f, "min=0"); err != nil {
			return nil, varMessage(key, err)
		}
	case FieldIsBlocked:
		if _, ok := value.(bool); !ok {
			return nil, "isBlocked must be a boolean"
		}
	case FieldKYCStatus:
		s, ok := value.(string)
		if !ok {
			return nil, "kycStatus must be a string"
		}
		if err := v.Var(s, "required,oneof=Pending Approved Rejected"); err != nil {
			return nil, fieldMessage(key, "oneof")
		}
	}
	return nil, ""
}

func checkDeviceField(key string, value interface{}) string {
	switch key {
	case "ipAddress":
		if _, ok := value.(string); !ok {
			return "deviceInfo.ipAddress must be a string"
		}
	case "deviceType", "os":
		s, ok := value.(string)
		if !ok {
			return "deviceInfo." + key + " must be a string"
		}
		tag := "omitempty,oneof=Mobile Desktop"
		if key == "os" {
			tag = "omitempty,oneof=Android iOS Windows macOS"
		}
		if err := GetValidator().Var(s, tag); err != nil {
			return fieldMessage(key, "oneof")
		}
	}
	return ""
}

func asNumber(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func asDocument(value interface{}) (map[string]interface{}, bool) {
	switch d := value.(type) {
	case bson.M:
		return d, true
	case map[string]interface{}:
		return d, true
	case bson.D:
		return d.Map(), true
	}
	return nil, false
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int32, reflect.Int64:
		return "a number"
	case reflect.Struct, reflect.Map:
		return "an object"
	case reflect.Slice, reflect.Array:
		return "an array"
	}
	return "a " + t.Kind().String()
}
