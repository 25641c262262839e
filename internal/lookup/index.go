package lookup

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ignite/shipment-importer/internal/domain"
)

// minPartialLen is the shortest folded string that may match as a
// substring of another.
const minPartialLen = 3

// Source loads the reference tables. Implementations return active rows only.
type Source interface {
	Departments(ctx context.Context) ([]domain.Department, error)
	Localities(ctx context.Context) ([]domain.Locality, error)
	Agencies(ctx context.Context) ([]domain.Agency, error)
	ServiceTypes(ctx context.Context) ([]domain.ServiceType, error)
}

// Index is a read-only snapshot of the reference tables.
type Index struct {
	departments []domain.Department
	deptByID    map[int]domain.Department
	deptByKey   map[string]domain.Department

	localities []domain.Locality
	locByID    map[int]domain.Locality
	locByKey   map[string][]domain.Locality
	locByDept  map[int][]domain.Locality

	agencies    []domain.Agency
	agencyByKey map[string]domain.Agency

	serviceByCode map[string]domain.ServiceType
	serviceByKey  map[string]domain.ServiceType
}

// Load reads every reference table from src and builds an Index.
func Load(ctx context.Context, src Source) (*Index, error) {
	depts, err := src.Departments(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup: departments: %w", err)
	}
	locs, err := src.Localities(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup: localities: %w", err)
	}
	agencies, err := src.Agencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup: agencies: %w", err)
	}
	services, err := src.ServiceTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup: service types: %w", err)
	}
	return New(depts, locs, agencies, services), nil
}

// New builds an Index from in-memory tables. Inputs are copied and sorted
// by name then id, which fixes the order of "first hit" partial matches.
func New(depts []domain.Department, locs []domain.Locality, agencies []domain.Agency, services []domain.ServiceType) *Index {
	idx := &Index{
		departments:   append([]domain.Department(nil), depts...),
		deptByID:      make(map[int]domain.Department, len(depts)),
		deptByKey:     make(map[string]domain.Department, len(depts)),
		localities:    append([]domain.Locality(nil), locs...),
		locByID:       make(map[int]domain.Locality, len(locs)),
		locByKey:      make(map[string][]domain.Locality),
		locByDept:     make(map[int][]domain.Locality),
		agencies:      append([]domain.Agency(nil), agencies...),
		agencyByKey:   make(map[string]domain.Agency, len(agencies)),
		serviceByCode: make(map[string]domain.ServiceType, len(services)),
		serviceByKey:  make(map[string]domain.ServiceType, len(services)),
	}

	sort.SliceStable(idx.departments, func(i, j int) bool {
		a, b := idx.departments[i], idx.departments[j]
		if Key(a.Name) != Key(b.Name) {
			return Key(a.Name) < Key(b.Name)
		}
		return a.ID < b.ID
	})
	sort.SliceStable(idx.localities, func(i, j int) bool {
		a, b := idx.localities[i], idx.localities[j]
		if Key(a.Name) != Key(b.Name) {
			return Key(a.Name) < Key(b.Name)
		}
		return a.ID < b.ID
	})
	sort.SliceStable(idx.agencies, func(i, j int) bool {
		return Key(idx.agencies[i].Name) < Key(idx.agencies[j].Name)
	})

	for _, d := range idx.departments {
		idx.deptByID[d.ID] = d
		if _, dup := idx.deptByKey[Key(d.Name)]; !dup {
			idx.deptByKey[Key(d.Name)] = d
		}
	}
	for _, l := range idx.localities {
		idx.locByID[l.ID] = l
		k := Key(l.Name)
		idx.locByKey[k] = append(idx.locByKey[k], l)
		idx.locByDept[l.DepartmentID] = append(idx.locByDept[l.DepartmentID], l)
	}
	for _, a := range idx.agencies {
		if _, dup := idx.agencyByKey[Key(a.Name)]; !dup {
			idx.agencyByKey[Key(a.Name)] = a
		}
	}
	for _, s := range services {
		idx.serviceByCode[s.Code] = s
		if _, dup := idx.serviceByKey[Key(s.Code)]; !dup {
			idx.serviceByKey[Key(s.Code)] = s
		}
	}
	return idx
}

// Departments returns all departments in catalogue order.
func (x *Index) Departments() []domain.Department {
	return append([]domain.Department(nil), x.departments...)
}

// Localities returns all localities in catalogue order.
func (x *Index) Localities() []domain.Locality {
	return append([]domain.Locality(nil), x.localities...)
}

// Agencies returns all agencies in catalogue order.
func (x *Index) Agencies() []domain.Agency {
	return append([]domain.Agency(nil), x.agencies...)
}

// DepartmentByID returns the department with the given id.
func (x *Index) DepartmentByID(id int) (domain.Department, bool) {
	d, ok := x.deptByID[id]
	return d, ok
}

// DepartmentByName matches a department name case-insensitively.
func (x *Index) DepartmentByName(name string) (domain.Department, bool) {
	d, ok := x.deptByKey[Key(name)]
	return d, ok
}

// LocalityByID returns the locality with the given id.
func (x *Index) LocalityByID(id int) (domain.Locality, bool) {
	l, ok := x.locByID[id]
	return l, ok
}

// LocalitiesByName returns every locality whose name matches case-insensitively.
func (x *Index) LocalitiesByName(name string) []domain.Locality {
	return append([]domain.Locality(nil), x.locByKey[Key(name)]...)
}

// LocalitiesInDepartment returns the localities of a department.
func (x *Index) LocalitiesInDepartment(deptID int) []domain.Locality {
	return append([]domain.Locality(nil), x.locByDept[deptID]...)
}

// AgencyByName matches an agency name case-insensitively.
func (x *Index) AgencyByName(name string) (domain.Agency, bool) {
	a, ok := x.agencyByKey[Key(name)]
	return a, ok
}

// ServiceTypeByCode tries an exact code match, then a case-insensitive one.
func (x *Index) ServiceTypeByCode(code string) (domain.ServiceType, bool) {
	if s, ok := x.serviceByCode[code]; ok {
		return s, true
	}
	s, ok := x.serviceByKey[Key(code)]
	return s, ok
}

// PartialDepartment returns the first department whose folded name contains,
// or is contained in, the folded value.
func (x *Index) PartialDepartment(value string) (domain.Department, bool) {
	v := Fold(value)
	if v == "" {
		return domain.Department{}, false
	}
	for _, d := range x.departments {
		if partialMatch(v, Fold(d.Name)) {
			return d, true
		}
	}
	return domain.Department{}, false
}

// PartialLocality returns the first locality whose folded name contains,
// or is contained in, the folded value.
func (x *Index) PartialLocality(value string) (domain.Locality, bool) {
	v := Fold(value)
	if v == "" {
		return domain.Locality{}, false
	}
	for _, l := range x.localities {
		if partialMatch(v, Fold(l.Name)) {
			return l, true
		}
	}
	return domain.Locality{}, false
}

// PartialLocalityInDepartment is PartialLocality restricted to one department.
func (x *Index) PartialLocalityInDepartment(value string, deptID int) (domain.Locality, bool) {
	v := Fold(value)
	if v == "" {
		return domain.Locality{}, false
	}
	for _, l := range x.locByDept[deptID] {
		if partialMatch(v, Fold(l.Name)) {
			return l, true
		}
	}
	return domain.Locality{}, false
}

func partialMatch(value, name string) bool {
	if name == "" {
		return false
	}
	if value == name {
		return true
	}
	if utf8.RuneCountInString(value) >= minPartialLen && strings.Contains(name, value) {
		return true
	}
	return utf8.RuneCountInString(name) >= minPartialLen && strings.Contains(value, name)
}
