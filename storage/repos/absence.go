package docrepos

import (
	"context"
	"sort"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/attendance"
)

type absenceRepository struct {
	store core.DocStore
}

var _ attendance.Repository = (*absenceRepository)(nil)

func NewAbsenceRepository(store core.DocStore) attendance.Repository {
	return &absenceRepository{store: store}
}

func (repo *absenceRepository) CountAbsences(ctx context.Context, memberID string) (int64, error) {
	return repo.store.Count(ctx, core.CollAbsences, core.Filter{"userId": memberID})
}

func (repo *absenceRepository) CountAllAbsences(ctx context.Context) (int64, error) {
	return repo.store.Count(ctx, core.CollAbsences, nil)
}

func (repo *absenceRepository) InsertAbsence(ctx context.Context, abs attendance.Absence) (attendance.Absence, error) {
	id, err := repo.store.Insert(ctx, core.CollAbsences, abs)
	if err != nil {
		return attendance.Absence{}, err
	}
	abs.ID = id
	return abs, nil
}

func (repo *absenceRepository) InsertAbsences(ctx context.Context, absences []attendance.Absence) ([]attendance.Absence, error) {
	writes := make([]core.BatchWrite, 0, len(absences))
	for _, abs := range absences {
		writes = append(writes, core.BatchWrite{Collection: core.CollAbsences, Doc: abs})
	}
	ids, err := repo.store.BatchCommit(ctx, writes)
	if err != nil {
		return nil, err
	}

	saved := make([]attendance.Absence, len(absences))
	for i, abs := range absences {
		abs.ID = ids[i]
		saved[i] = abs
	}
	return saved, nil
}

func (repo *absenceRepository) GetAbsence(ctx context.Context, id string) (attendance.Absence, error) {
	var abs attendance.Absence
	if err := repo.store.Get(ctx, core.CollAbsences, id, &abs); err != nil {
		return attendance.Absence{}, err
	}
	return abs, nil
}

func (repo *absenceRepository) UpdateAbsence(ctx context.Context, id string, fields core.Fields) (attendance.Absence, error) {
	if err := repo.store.Update(ctx, core.CollAbsences, id, fields); err != nil {
		return attendance.Absence{}, err
	}
	return repo.GetAbsence(ctx, id)
}

func (repo *absenceRepository) DeleteAbsence(ctx context.Context, id string) error {
	return repo.store.Delete(ctx, core.CollAbsences, id)
}

func (repo *absenceRepository) QueryAbsences(ctx context.Context) ([]attendance.Absence, error) {
	var absences []attendance.Absence
	if err := repo.store.GetOrdered(ctx, core.CollAbsences, core.DBOrdering{Field: "meetingDate"}, &absences); err != nil {
		return nil, err
	}
	return absences, nil
}

func (repo *absenceRepository) QueryMemberAbsences(ctx context.Context, memberID string) ([]attendance.Absence, error) {
	var absences []attendance.Absence
	if err := repo.store.GetFiltered(ctx, core.CollAbsences, core.Filter{"userId": memberID}, &absences); err != nil {
		return nil, err
	}
	// YYYY-MM-DD sorts lexically
	sort.SliceStable(absences, func(i, j int) bool { return absences[i].MeetingDate > absences[j].MeetingDate })
	return absences, nil
}
