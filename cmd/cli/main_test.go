package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhyrak/go-timetable/internal/config"
)

func writeFixtures(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"rooms.csv": "id;capacity;av_support;computers;room_type\n101;60;true;0;Lecture\n201;35;true;30;Lab\n",
		"courses.csv": "code;subject;domain;year;students;lecture_hours;lab_hours;lecture_instructor;lab_instructor;schedule_pattern\n" +
			"CS101;Programming I;CSE;1;35;3;1;1;2;MWF\n" +
			"MA101;Calculus;Mathematics;1;50;2;0;3;0;TTS\n",
		"instructors.csv": "id;first_name;last_name;department\n1;Grace;Hopper;CSE\n2;Alan;Turing;CSE\n3;Emmy;Noether;Mathematics\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	reserved := "day;time;room_id;instructor_id;domain;year;note\nTuesday;9:00 - 10:00;;3;;;Noether is away\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reserved.csv"), []byte(reserved), 0o644))
	return &config.Config{
		Data: config.DataConfig{
			RoomsFile:       filepath.Join(dir, "rooms.csv"),
			CoursesFile:     filepath.Join(dir, "courses.csv"),
			InstructorsFile: filepath.Join(dir, "instructors.csv"),
			ExportFile:      filepath.Join(dir, "timetable.csv"),
			Delimiter:       ';',
		},
		Scheduler: config.SchedulerConfig{MaxAttempts: 10, Workers: 2, LabBlockLength: 2},
		Log:       config.LogConfig{Level: "error", Format: "console"},
	}
}

func TestGenerateThenValidate(t *testing.T) {
	cfg := writeFixtures(t)
	conflicts := filepath.Join(filepath.Dir(cfg.Data.ExportFile), "conflicts.csv")

	root := newRootCommand(cfg)
	book := filepath.Join(filepath.Dir(cfg.Data.ExportFile), "timetable.xlsx")
	root.SetArgs([]string{"generate", "--seed", "3", "--conflicts-out", conflicts, "--xlsx", book})
	require.NoError(t, root.Execute())

	content, err := os.ReadFile(cfg.Data.ExportFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "day,time,course_code,room_id,instructor_id,session_type")
	assert.FileExists(t, conflicts)
	assert.FileExists(t, book)

	root = newRootCommand(cfg)
	root.SetArgs([]string{"validate"})
	assert.NoError(t, root.Execute())

	root = newRootCommand(cfg)
	root.SetArgs([]string{"print", "--domain", "CSE"})
	assert.NoError(t, root.Execute())
}

func TestValidateReportsTamperedTimetable(t *testing.T) {
	cfg := writeFixtures(t)
	tampered := "day,time,course_code,room_id,instructor_id,session_type\n" +
		"Monday,9:00 - 10:00,CS101,101,1,Lecture\n" +
		"Monday,9:00 - 10:00,MA101,101,3,Lecture\n"
	require.NoError(t, os.WriteFile(cfg.Data.ExportFile, []byte(tampered), 0o644))

	root := newRootCommand(cfg)
	root.SetArgs([]string{"validate"})
	assert.Error(t, root.Execute())
}

func TestRejectsBadDelimiter(t *testing.T) {
	cfg := writeFixtures(t)
	root := newRootCommand(cfg)
	root.SetArgs([]string{"generate", "--delimiter", ";;"})
	assert.Error(t, root.Execute())
}

func TestGenerateWithReservations(t *testing.T) {
	cfg := writeFixtures(t)
	reserved := filepath.Join(filepath.Dir(cfg.Data.ExportFile), "reserved.csv")

	root := newRootCommand(cfg)
	root.SetArgs([]string{"generate", "--seed", "5", "--reserved", reserved})
	require.NoError(t, root.Execute())

	content, err := os.ReadFile(cfg.Data.ExportFile)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "Tuesday,9:00 - 10:00,MA101")
	assert.Contains(t, string(content), "MA101")
}

func TestNormalizeCourses(t *testing.T) {
	cfg := writeFixtures(t)

	var stdout bytes.Buffer
	root := newRootCommand(cfg)
	root.SetOut(&stdout)
	root.SetArgs([]string{"normalize"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "code,subject,domain,year,students,lecture_hours,lab_hours,lecture_instructor,lab_instructor,schedule_pattern\n"+
		"CS101,Programming I,CSE,1,35,3,1,1,2,MWF\n"+
		"MA101,Calculus,Mathematics,1,50,2,0,3,0,TTS\n", stdout.String())

	out := filepath.Join(t.TempDir(), "courses.csv")
	root = newRootCommand(cfg)
	root.SetArgs([]string{"normalize", "--out", out})
	require.NoError(t, root.Execute())
	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, stdout.String(), string(content))
}
