package validator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type signup struct {
	Username string  `json:"username" validate:"required,username"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Age      *int    `json:"age,omitempty" validate:"omitempty,min=13,max=120"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=5"`
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestStruct(t *testing.T) {
	tests := []struct {
		name  string
		input signup
		want  ValidationErrors
	}{
		{
			name:  "valid",
			input: signup{Username: "alice_1", Email: "a@example.com", Password: "password1", Age: intPtr(30)},
			want:  ValidationErrors{},
		},
		{
			name:  "missing fields",
			input: signup{},
			want: ValidationErrors{
				"username": "Username is required",
				"email":    "Email is required",
				"password": "Password is required",
			},
		},
		{
			name:  "bad values",
			input: signup{Username: "a!", Email: "nope", Password: "short", Age: intPtr(12), Bio: strPtr("too long")},
			want: ValidationErrors{
				"username": "Username must be 3-20 characters of letters, numbers or _",
				"email":    "Invalid email address",
				"password": "Password must be at least 8 characters",
				"age":      "Age must be at least 13",
				"bio":      "Bio must be at most 5 characters",
			},
		},
		{
			name:  "username too long",
			input: signup{Username: "abcdefghijklmnopqrstu", Email: "a@example.com", Password: "password1"},
			want:  ValidationErrors{"username": "Username must be 3-20 characters of letters, numbers or _"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Struct(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Struct() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
