// Package memtest provides an in-memory store.Store for use by _test.go
// files across internal/szz/... and cmd/szz, so component tests never need
// a running database.
package memtest

import (
	"context"
	"sort"

	"github.com/smartshark/inducingSHARK/internal/store"
)

// Store is a map-backed fake implementing store.Store.
type Store struct {
	Projects     map[string]store.Project
	VCSSystems   map[string]store.VCSSystem
	IssueSystems map[string]store.IssueSystem
	Commits      map[string]store.Commit
	Files        map[string]store.File
	FileActions  map[string]store.FileAction
	Hunks        map[string][]store.Hunk // keyed by FileActionID
	Issues       map[string]store.Issue
	Refactorings map[string][]store.Refactoring // keyed by CommitID
	Tags         map[string][]store.Tag         // keyed by VCSSystemID
}

// New returns an empty Store ready for tests to populate directly via its
// exported maps.
func New() *Store {
	return &Store{
		Projects:     make(map[string]store.Project),
		VCSSystems:   make(map[string]store.VCSSystem),
		IssueSystems: make(map[string]store.IssueSystem),
		Commits:      make(map[string]store.Commit),
		Files:        make(map[string]store.File),
		FileActions:  make(map[string]store.FileAction),
		Hunks:        make(map[string][]store.Hunk),
		Issues:       make(map[string]store.Issue),
		Refactorings: make(map[string][]store.Refactoring),
		Tags:         make(map[string][]store.Tag),
	}
}

func (s *Store) GetProject(_ context.Context, name string) (store.Project, error) {
	for _, p := range s.Projects {
		if p.Name == name {
			return p, nil
		}
	}
	return store.Project{}, store.ErrNotFound
}

func (s *Store) GetVCSSystem(_ context.Context, projectID, url string) (store.VCSSystem, error) {
	for _, v := range s.VCSSystems {
		if v.ProjectID != projectID {
			continue
		}
		if url == "" || v.URL == url {
			return v, nil
		}
	}
	return store.VCSSystem{}, store.ErrNotFound
}

func (s *Store) GetIssueSystem(_ context.Context, projectID string) (store.IssueSystem, error) {
	for _, is := range s.IssueSystems {
		if is.ProjectID == projectID {
			return is, nil
		}
	}
	return store.IssueSystem{}, store.ErrNotFound
}

func (s *Store) ListBugfixCommitIDs(_ context.Context, filter store.CommitFilter) ([]string, error) {
	var ids []string
	for id, c := range s.Commits {
		if c.VCSSystemID != filter.VCSSystemID {
			continue
		}
		if !c.IsRoot() && len(c.ParentHashes) > 1 {
			continue // exclude merges, mirrors parents__1__exists: False
		}
		if c.Labels[filter.Label] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) GetCommit(_ context.Context, id string) (store.Commit, error) {
	c, ok := s.Commits[id]
	if !ok {
		return store.Commit{}, store.ErrNotFound
	}
	return c, nil
}

func (s *Store) GetCommitByRevision(_ context.Context, vcsSystemID, revisionHash string) (store.Commit, error) {
	for _, c := range s.Commits {
		if c.VCSSystemID == vcsSystemID && c.RevisionHash == revisionHash {
			return c, nil
		}
	}
	return store.Commit{}, store.ErrNotFound
}

func (s *Store) ListFileActions(_ context.Context, commitID string) ([]store.FileAction, error) {
	var out []store.FileAction
	for _, fa := range s.FileActions {
		if fa.CommitID == commitID {
			out = append(out, fa)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetFileAction(_ context.Context, id string) (store.FileAction, error) {
	fa, ok := s.FileActions[id]
	if !ok {
		return store.FileAction{}, store.ErrNotFound
	}
	return fa, nil
}

func (s *Store) GetFile(_ context.Context, id string) (store.File, error) {
	f, ok := s.Files[id]
	if !ok {
		return store.File{}, store.ErrNotFound
	}
	return f, nil
}

func (s *Store) ListHunks(_ context.Context, fileActionID string) ([]store.Hunk, error) {
	return s.Hunks[fileActionID], nil
}

func (s *Store) ListRefactorings(_ context.Context, commitID, detectionTool string) ([]store.Refactoring, error) {
	var out []store.Refactoring
	for _, r := range s.Refactorings[commitID] {
		if r.DetectionTool == detectionTool {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) GetIssue(_ context.Context, id string) (store.Issue, error) {
	i, ok := s.Issues[id]
	if !ok {
		return store.Issue{}, store.ErrNotFound
	}
	return i, nil
}

func (s *Store) ListIssues(_ context.Context, issueSystemID string) ([]store.Issue, error) {
	var out []store.Issue
	for _, i := range s.Issues {
		if i.IssueSystemID == issueSystemID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s *Store) ListTags(_ context.Context, vcsSystemID string) ([]store.Tag, error) {
	return s.Tags[vcsSystemID], nil
}

func (s *Store) EnsureProject(_ context.Context, name string) (store.Project, error) {
	for _, p := range s.Projects {
		if p.Name == name {
			return p, nil
		}
	}
	p := store.Project{ID: store.DeriveID("project", name), Name: name}
	s.Projects[p.ID] = p
	return p, nil
}

func (s *Store) EnsureVCSSystem(_ context.Context, projectID, urlStr string) (store.VCSSystem, error) {
	for _, v := range s.VCSSystems {
		if v.ProjectID == projectID && v.URL == urlStr {
			return v, nil
		}
	}
	v := store.VCSSystem{ID: store.DeriveID("vcs_system", projectID, urlStr), ProjectID: projectID, URL: urlStr}
	s.VCSSystems[v.ID] = v
	return v, nil
}

func (s *Store) EnsureIssueSystem(_ context.Context, projectID, urlStr string) (store.IssueSystem, error) {
	if err := store.ValidateJIRAURL(urlStr); err != nil {
		return store.IssueSystem{}, err
	}
	for _, is := range s.IssueSystems {
		if is.ProjectID == projectID && is.URL == urlStr {
			return is, nil
		}
	}
	is := store.IssueSystem{ID: store.DeriveID("issue_system", projectID, urlStr), ProjectID: projectID, URL: urlStr}
	s.IssueSystems[is.ID] = is
	return is, nil
}

func (s *Store) EnsureFile(_ context.Context, vcsSystemID, path string) (store.File, error) {
	for _, f := range s.Files {
		if f.VCSSystemID == vcsSystemID && f.Path == path {
			return f, nil
		}
	}
	f := store.File{ID: store.DeriveID("file", vcsSystemID, path), VCSSystemID: vcsSystemID, Path: path}
	s.Files[f.ID] = f
	return f, nil
}

func (s *Store) PutCommit(_ context.Context, c store.Commit) error {
	s.Commits[c.ID] = c
	return nil
}

func (s *Store) PutFileAction(_ context.Context, fa store.FileAction) error {
	if existing, ok := s.FileActions[fa.ID]; ok {
		fa.Induces = existing.Induces // ClearInducing/AppendInducing own this field across re-ingests
	}
	s.FileActions[fa.ID] = fa
	return nil
}

func (s *Store) PutHunk(_ context.Context, h store.Hunk) error {
	hunks := s.Hunks[h.FileActionID]
	for i, existing := range hunks {
		if existing.ID == h.ID {
			hunks[i] = h
			s.Hunks[h.FileActionID] = hunks
			return nil
		}
	}
	s.Hunks[h.FileActionID] = append(hunks, h)
	return nil
}

func (s *Store) PutTag(_ context.Context, vcsSystemID string, t store.Tag) error {
	tags := s.Tags[vcsSystemID]
	for i, existing := range tags {
		if existing.Name == t.Name {
			tags[i] = t
			s.Tags[vcsSystemID] = tags
			return nil
		}
	}
	s.Tags[vcsSystemID] = append(tags, t)
	return nil
}

func (s *Store) PutIssue(_ context.Context, i store.Issue) error {
	s.Issues[i.ID] = i
	return nil
}

func (s *Store) PutRefactoring(_ context.Context, r store.Refactoring) error {
	refs := s.Refactorings[r.CommitID]
	for i, existing := range refs {
		if existing.ID == r.ID {
			refs[i] = r
			s.Refactorings[r.CommitID] = refs
			return nil
		}
	}
	s.Refactorings[r.CommitID] = append(refs, r)
	return nil
}

func (s *Store) ClearInducing(_ context.Context, vcsSystemID string) error {
	for id, fa := range s.FileActions {
		c, ok := s.Commits[fa.CommitID]
		if !ok || c.VCSSystemID != vcsSystemID {
			continue
		}
		fa.Induces = nil
		s.FileActions[id] = fa
	}
	return nil
}

func (s *Store) AppendInducing(_ context.Context, fileActionID string, rec store.InducingRecord) error {
	fa, ok := s.FileActions[fileActionID]
	if !ok {
		return store.ErrNotFound
	}
	for _, existing := range fa.Induces {
		if existing == rec {
			return nil
		}
	}
	fa.Induces = append(fa.Induces, rec)
	s.FileActions[fileActionID] = fa
	return nil
}

func (s *Store) Close() error { return nil }
