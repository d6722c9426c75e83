package routing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telemed-routing/internal/directory"
)

// -- Fakes --

type fakeDoctors struct {
	doctors []directory.Doctor
	queries []string
}

func (f *fakeDoctors) FindByVillage(_ context.Context, village string) ([]directory.Doctor, error) {
	f.queries = append(f.queries, "village:"+village)
	var out []directory.Doctor
	for _, d := range f.doctors {
		if d.Covers(village) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDoctors) FindByBlock(_ context.Context, block string) ([]directory.Doctor, error) {
	f.queries = append(f.queries, "block:"+block)
	var out []directory.Doctor
	for _, d := range f.doctors {
		if strings.EqualFold(d.Block, block) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDoctors) FindByDistrict(_ context.Context, district string) ([]directory.Doctor, error) {
	f.queries = append(f.queries, "district:"+district)
	var out []directory.Doctor
	for _, d := range f.doctors {
		if strings.EqualFold(d.District, district) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDoctors) FindByID(_ context.Context, id uuid.UUID) (*directory.Doctor, error) {
	for _, d := range f.doctors {
		if d.ID == id {
			d := d
			return &d, nil
		}
	}
	return nil, directory.ErrDoctorNotFound
}

type booking struct {
	doctorID   uuid.UUID
	start, end time.Time
	scheduled  bool
}

type fakeOverlaps struct {
	bookings []booking
}

func (f *fakeOverlaps) CountOverlappingScheduled(_ context.Context, doctorID uuid.UUID, start, end time.Time) (int, error) {
	n := 0
	for _, b := range f.bookings {
		if b.doctorID == doctorID && b.scheduled && Overlaps(b.start, b.end, start, end) {
			n++
		}
	}
	return n, nil
}

func doctor(name string, opts ...func(*directory.Doctor)) directory.Doctor {
	d := directory.Doctor{
		ID:       uuid.New(),
		Name:     name,
		Hospital: name + " Hospital",
		Active:   true,
		Status:   directory.DoctorAvailable,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func withPriority(p int) func(*directory.Doctor) {
	return func(d *directory.Doctor) { d.Priority = &p }
}

func withCapacity(c int) func(*directory.Doctor) {
	return func(d *directory.Doctor) { d.MaxConcurrentPatients = &c }
}

func withGeo(block, district string, villages ...string) func(*directory.Doctor) {
	return func(d *directory.Doctor) {
		d.Block = block
		d.District = district
		d.CoverageVillages = villages
	}
}

func window(h, m, minutes int) (time.Time, time.Time) {
	start := time.Date(2030, 1, 15, h, m, 0, 0, time.UTC)
	return start, start.Add(time.Duration(minutes) * time.Minute)
}
