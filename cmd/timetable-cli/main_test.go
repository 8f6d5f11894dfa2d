package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/internal/snapshot"
)

func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		snapshot.SubjectsFile: "id,code,name,type,sessions_per_week,session_duration,course_id,semester,credits\n" +
			"sub-math,MA101,Mathematics,theory,2,60,cs,1,4\n",
		snapshot.BatchesFile: "id,name,course_id,semester,student_count,subjects\n" +
			"bat-a,CS-A,cs,1,40,sub-math\n",
		snapshot.FacultyFile: "id,name,email,department,subjects,max_classes_per_day,max_classes_per_week,availability,average_leaves\n" +
			"fac-1,Dr. Rao,rao@example.edu,cs,sub-math,4,18,,0\n",
		snapshot.RoomsFile: "id,name,type,capacity,equipment,department_id\n" +
			"room-1,A-101,classroom,60,,\n",
		snapshot.TimeSlotsFile: "id,day,start_time,end_time,shift\n" +
			"d0-s0,0,09:00,09:50,morning\n" +
			"d1-s0,1,09:00,09:50,morning\n" +
			"d2-s0,2,09:00,09:50,morning\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestRunWritesOutputs(t *testing.T) {
	dir := writeDataDir(t)
	out := t.TempDir()
	jsonPath := filepath.Join(out, "options.json")
	csvPath := filepath.Join(out, "best.csv")
	xlsxPath := filepath.Join(out, "options.xlsx")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-data", dir, "-seed", "7", "-options", "2",
		"-json", jsonPath, "-csv", csvPath, "-xlsx", xlsxPath,
	}, &stdout)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Balanced")
	assert.Contains(t, stdout.String(), "Faculty Optimized")
	assert.Contains(t, stdout.String(), "best: ")

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var options []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &options))
	assert.Len(t, options, 2)

	csvData, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Contains(t, lines[1], "Mathematics")

	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRunRejectsBadFlags(t *testing.T) {
	cases := [][]string{
		{"-delimiter", ";;"},
		{"-weeks", "0"},
		{"-probability", "1.5"},
	}
	for _, args := range cases {
		_, err := parseFlags(args, io.Discard)
		assert.Error(t, err, args)
	}
}

func TestRunIncompleteSnapshot(t *testing.T) {
	dir := writeDataDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshot.RoomsFile), []byte("id,name,type,capacity,equipment,department_id\n"), 0o644))

	err := run(context.Background(), []string{"-data", dir}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rooms=0")
}
