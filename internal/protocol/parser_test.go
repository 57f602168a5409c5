package protocol

import (
	"bytes"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		id   uint16
		want Category
	}{
		{0x000, CategoryIgnored},
		{0x001, CategoryAlarm},
		{0x0FF, CategoryAlarm},
		{0x100, CategoryParameter},
		{0x6DF, CategoryParameter},
		{0x6E0, CategoryNodeSpecific},
		{0x7DF, CategoryNodeSpecific},
		{0x7E0, CategoryChannel},
		{0x7FF, CategoryChannel},
		{0x800, CategoryIgnored},
		{0xFFFF, CategoryIgnored},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			if got := Classify(tt.id); got != tt.want {
				t.Errorf("Classify(0x%03x) = %s, want %s", tt.id, got, tt.want)
			}
		})
	}
}

func TestClassifyPartition(t *testing.T) {
	counts := map[Category]int{}
	for id := uint16(0); id <= MaxID; id++ {
		counts[Classify(id)]++
	}

	want := map[Category]int{
		CategoryIgnored:      1,
		CategoryAlarm:        255,
		CategoryParameter:    1504,
		CategoryNodeSpecific: 256,
		CategoryChannel:      32,
	}
	for c, n := range want {
		if counts[c] != n {
			t.Errorf("%s: %d identifiers, want %d", c, counts[c], n)
		}
	}
}

func TestSubAddress(t *testing.T) {
	if got := SubAddress(0x6E0); got != 0 {
		t.Errorf("SubAddress(0x6E0) = %d, want 0", got)
	}
	if got := SubAddress(0x6E5); got != 5 {
		t.Errorf("SubAddress(0x6E5) = %d, want 5", got)
	}
	if got := SubAddress(0x7DF); got != 255 {
		t.Errorf("SubAddress(0x7DF) = %d, want 255", got)
	}
}

func TestParameterFCB(t *testing.T) {
	p := Parameter{FCB: 0xA5}
	if p.Metadata() != 0x0A {
		t.Errorf("Metadata() = 0x%x, want 0xa", p.Metadata())
	}
	if p.Flags() != 0x05 {
		t.Errorf("Flags() = 0x%x, want 0x5", p.Flags())
	}

	p.SetMetadata(0x03)
	if p.FCB != 0x35 {
		t.Errorf("after SetMetadata FCB = 0x%02x, want 0x35", p.FCB)
	}
	p.SetFlags(FlagQuality | FlagFail)
	if p.FCB != 0x36 {
		t.Errorf("after SetFlags FCB = 0x%02x, want 0x36", p.FCB)
	}
	if p.Annunciate() || !p.Quality() || !p.Failed() {
		t.Errorf("flags = annunc %v quality %v fail %v, want false true true",
			p.Annunciate(), p.Quality(), p.Failed())
	}

	// Values wider than a nibble do not leak into the other half.
	p.SetFlags(0xF1)
	if p.FCB != 0x31 {
		t.Errorf("after SetFlags(0xf1) FCB = 0x%02x, want 0x31", p.FCB)
	}
}

func TestParseParameter(t *testing.T) {
	tests := []struct {
		name    string
		frame   Frame
		wantErr bool
		verify  func(t *testing.T, p Parameter)
	}{
		{
			name:  "airspeed with two bytes",
			frame: NewFrame(0x183, []byte{0x05, 0x00, 0x12, 0x10, 0x27}),
			verify: func(t *testing.T, p Parameter) {
				if p.Type != 0x183 || p.Node != 5 || p.Index != 0 || p.FCB != 0x12 {
					t.Errorf("header = %+v", p)
				}
				if !bytes.Equal(p.Payload(), []byte{0x10, 0x27}) {
					t.Errorf("payload = % x, want 10 27", p.Payload())
				}
			},
		},
		{
			name:  "header only",
			frame: NewFrame(0x100, []byte{0x01, 0x02, 0x03}),
			verify: func(t *testing.T, p Parameter) {
				if p.Length != 0 {
					t.Errorf("length = %d, want 0", p.Length)
				}
			},
		},
		{
			name:    "too short",
			frame:   NewFrame(0x183, []byte{0x05, 0x00}),
			wantErr: true,
		},
		{
			name:    "not a parameter",
			frame:   NewFrame(0x6E0, []byte{0, 0, 0}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseParameter(tt.frame)
			if tt.wantErr {
				if !IsMalformed(err) {
					t.Errorf("ParseParameter() error = %v, want malformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseParameter() error = %v", err)
			}
			if tt.verify != nil {
				tt.verify(t, p)
			}
		})
	}
}

func TestParameterRoundTrip(t *testing.T) {
	for n := 0; n <= MaxParameterData; n++ {
		p := Parameter{Type: 0x200 + uint16(n), Node: 7, Index: byte(n), FCB: 0x4A}
		p.SetPayload([]byte{1, 2, 3, 4, 5}[:n])

		got, err := ParseParameter(BuildParameter(p.Node, p))
		if err != nil {
			t.Fatalf("payload %d: ParseParameter() error = %v", n, err)
		}
		if got != p {
			t.Errorf("payload %d: round trip = %+v, want %+v", n, got, p)
		}
	}
}

func TestParameterRoundTripIgnoresUnusedData(t *testing.T) {
	tests := []struct {
		name string
		p    Parameter
	}{
		{name: "tail set", p: Parameter{Type: 0x183, Node: 7, Index: 1, FCB: 0x31, Data: [MaxParameterData]byte{1, 2, 3, 4, 5}, Length: 2}},
		{name: "empty payload", p: Parameter{Type: 0x200, Node: 3, Data: [MaxParameterData]byte{9, 9, 9, 9, 9}}},
		{name: "full", p: Parameter{Type: 0x6DF, Node: 1, Index: 4, FCB: 0x0F, Data: [MaxParameterData]byte{1, 2, 3, 4, 5}, Length: 5}},
		{name: "length past data", p: Parameter{Type: 0x300, Node: 2, Data: [MaxParameterData]byte{1, 2, 3, 4, 5}, Length: 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParameter(BuildParameter(tt.p.Node, tt.p))
			if err != nil {
				t.Fatalf("ParseParameter() error = %v", err)
			}
			if !got.Equal(tt.p) {
				t.Errorf("round trip = %+v, want %+v", got, tt.p)
			}
		})
	}
}

func TestParameterEqual(t *testing.T) {
	base := Parameter{Type: 0x183, Node: 7, Index: 1, FCB: 0x31}
	base.SetPayload([]byte{1, 2})

	tests := []struct {
		name   string
		modify func(p *Parameter)
		want   bool
	}{
		{name: "same", modify: func(*Parameter) {}, want: true},
		{name: "unused tail differs", modify: func(p *Parameter) { p.Data[4] = 0xFF }, want: true},
		{name: "payload differs", modify: func(p *Parameter) { p.Data[1] = 0xFF }, want: false},
		{name: "length differs", modify: func(p *Parameter) { p.Length = 3 }, want: false},
		{name: "fcb differs", modify: func(p *Parameter) { p.FCB = 0x30 }, want: false},
		{name: "index differs", modify: func(p *Parameter) { p.Index = 2 }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.modify(&other)
			if got := base.Equal(other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseAlarm(t *testing.T) {
	tests := []struct {
		name     string
		frame    Frame
		wantType uint16
		wantData []byte
	}{
		{name: "with data", frame: NewFrame(0x012, []byte{0x34, 0x12, 0xAA, 0xBB}), wantType: 0x1234, wantData: []byte{0xAA, 0xBB}},
		{name: "type only", frame: NewFrame(0x012, []byte{0x01, 0x00}), wantType: 1, wantData: nil},
		{name: "short", frame: NewFrame(0x012, []byte{0x07}), wantType: 7, wantData: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ParseAlarm(tt.frame)
			if a.Node != 0x12 {
				t.Errorf("node = %d, want 18", a.Node)
			}
			if a.Type != tt.wantType {
				t.Errorf("type = 0x%04x, want 0x%04x", a.Type, tt.wantType)
			}
			if !bytes.Equal(a.Data, tt.wantData) {
				t.Errorf("data = % x, want % x", a.Data, tt.wantData)
			}
		})
	}
}

func TestParseNodeRequest(t *testing.T) {
	r, err := ParseNodeRequest(NewFrame(0x6E3, []byte{byte(NSMNodeSet), 0x00, 0x05}))
	if err != nil {
		t.Fatalf("ParseNodeRequest() error = %v", err)
	}
	if r.Code != NSMNodeSet || r.Target != 0 || r.From != 3 {
		t.Errorf("request = %+v", r)
	}
	if !r.Broadcast() {
		t.Error("Broadcast() = false, want true")
	}

	if _, err := ParseNodeRequest(NewFrame(0x6E3, []byte{byte(NSMIdentify)})); !IsMalformed(err) {
		t.Errorf("short request error = %v, want malformed", err)
	}
}

func TestControlCodeString(t *testing.T) {
	tests := []struct {
		code ControlCode
		want string
	}{
		{NSMIdentify, "identify"},
		{NSMConfigGet, "config_get"},
		{NSMParameterSet, "parameter_set_0"},
		{ControlCode(19), "parameter_set_7"},
		{ControlCode(42), "code(42)"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("ControlCode(%d).String() = %q, want %q", byte(tt.code), got, tt.want)
		}
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		frame   Frame
		want    Category
		wantNil bool
		wantErr bool
	}{
		{name: "alarm", frame: NewFrame(0x010, []byte{1, 0}), want: CategoryAlarm},
		{name: "parameter", frame: NewFrame(0x183, []byte{1, 0, 0, 5}), want: CategoryParameter},
		{name: "node specific", frame: NewFrame(0x6E1, []byte{0, 1}), want: CategoryNodeSpecific},
		{name: "channel", frame: NewFrame(0x7E3, []byte{9}), want: CategoryChannel},
		{name: "ignored", frame: NewFrame(0x000, []byte{1}), wantNil: true},
		{name: "short parameter", frame: NewFrame(0x183, []byte{1}), wantErr: true},
		{name: "invalid id", frame: Frame{ID: 0x900}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage(tt.frame)
			if tt.wantErr {
				if err == nil {
					t.Error("ParseMessage() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMessage() error = %v", err)
			}
			if tt.wantNil {
				if msg != nil {
					t.Errorf("ParseMessage() = %v, want nil", msg)
				}
				return
			}
			if msg.Category() != tt.want {
				t.Errorf("category = %s, want %s", msg.Category(), tt.want)
			}
			if msg.String() == "" {
				t.Error("String() is empty")
			}
		})
	}
}
