package db

import (
	"testing"

	"github.com/acolytehq/acolyte/internal/types"
)

func TestCreateJobFirstBecomesActive(t *testing.T) {
	conn := openTestDB(t)

	jobID, err := CreateJob(conn, "wire up auth", "", false)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	job, err := GetJob(conn, jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job == nil {
		t.Fatal("expected job")
	}
	if job.Status != types.JobStatusActive {
		t.Fatalf("expected active, got %s", job.Status)
	}
}

func TestCreateJobWithActivatePausesCurrent(t *testing.T) {
	conn := openTestDB(t)

	first, err := CreateJob(conn, "first", "", true)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := CreateJob(conn, "second", "", true)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	firstJob, err := GetJob(conn, first)
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if firstJob.Status != types.JobStatusPaused {
		t.Fatalf("expected first paused, got %s", firstJob.Status)
	}
	if firstJob.PauseReason == nil || *firstJob.PauseReason != "Switched to job "+second {
		t.Fatalf("unexpected pause reason: %v", firstJob.PauseReason)
	}

	active, err := GetActiveJob(conn)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active == nil || active.ID != second {
		t.Fatal("expected second job active")
	}
}

func TestCreateJobWithoutActivateStaysPaused(t *testing.T) {
	conn := openTestDB(t)

	if _, err := CreateJob(conn, "first", "", true); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := CreateJob(conn, "second", "", false)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	job, err := GetJob(conn, second)
	if err != nil {
		t.Fatalf("get second: %v", err)
	}
	if job.Status != types.JobStatusPaused {
		t.Fatalf("expected paused, got %s", job.Status)
	}
}

func TestCreateJobRequiresTitle(t *testing.T) {
	conn := openTestDB(t)

	if _, err := CreateJob(conn, "", "", false); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestActivateJobSwapsAtomically(t *testing.T) {
	conn := openTestDB(t)

	first, err := CreateJob(conn, "first", "", true)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := CreateJob(conn, "second", "", false)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if err := ActivateJob(conn, second); err != nil {
		t.Fatalf("activate second: %v", err)
	}

	var activeCount int
	if err := conn.QueryRow("SELECT COUNT(*) FROM jobs WHERE status = 'active'").Scan(&activeCount); err != nil {
		t.Fatalf("count active: %v", err)
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly one active job, got %d", activeCount)
	}

	firstJob, err := GetJob(conn, first)
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if firstJob.Status != types.JobStatusPaused {
		t.Fatalf("expected first paused, got %s", firstJob.Status)
	}
}

func TestActivateJobAlreadyActiveIsNoOp(t *testing.T) {
	conn := openTestDB(t)

	jobID, err := CreateJob(conn, "only", "", true)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := ActivateJob(conn, jobID); err != nil {
		t.Fatalf("activate active job: %v", err)
	}

	job, err := GetJob(conn, jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != types.JobStatusActive {
		t.Fatalf("expected active, got %s", job.Status)
	}
}

func TestActivateJobUnknownID(t *testing.T) {
	conn := openTestDB(t)

	if err := ActivateJob(conn, "job_missing00000"); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestListJobsLimit(t *testing.T) {
	conn := openTestDB(t)

	for _, title := range []string{"a", "b", "c"} {
		if _, err := CreateJob(conn, title, "", false); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	jobs, err := ListJobs(conn, 2)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
}
