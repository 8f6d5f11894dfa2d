package snapshot

type subjectRecord struct {
	ID              string `csv:"id"`
	Code            string `csv:"code"`
	Name            string `csv:"name"`
	Type            string `csv:"type"`
	SessionsPerWeek int    `csv:"sessions_per_week"`
	SessionDuration int    `csv:"session_duration"`
	CourseID        string `csv:"course_id"`
	Semester        int    `csv:"semester"`
	Credits         int    `csv:"credits"`
}

type batchRecord struct {
	ID           string `csv:"id"`
	Name         string `csv:"name"`
	CourseID     string `csv:"course_id"`
	Semester     int    `csv:"semester"`
	StudentCount int    `csv:"student_count"`
	Subjects     string `csv:"subjects"`
}

type facultyRecord struct {
	ID                string  `csv:"id"`
	Name              string  `csv:"name"`
	Email             string  `csv:"email"`
	Department        string  `csv:"department"`
	Subjects          string  `csv:"subjects"`
	MaxClassesPerDay  int     `csv:"max_classes_per_day"`
	MaxClassesPerWeek int     `csv:"max_classes_per_week"`
	Availability      string  `csv:"availability"`
	AverageLeaves     float64 `csv:"average_leaves"`
}

type roomRecord struct {
	ID           string `csv:"id"`
	Name         string `csv:"name"`
	Type         string `csv:"type"`
	Capacity     int    `csv:"capacity"`
	Equipment    string `csv:"equipment"`
	DepartmentID string `csv:"department_id"`
}

type timeSlotRecord struct {
	ID        string `csv:"id"`
	Day       int    `csv:"day"`
	StartTime string `csv:"start_time"`
	EndTime   string `csv:"end_time"`
	Shift     string `csv:"shift"`
}

// SessionRow is the flat CSV shape of a generated session.
type SessionRow struct {
	Week      int    `csv:"week"`
	Day       string `csv:"day"`
	StartTime string `csv:"start_time"`
	EndTime   string `csv:"end_time"`
	Batch     string `csv:"batch"`
	Subject   string `csv:"subject"`
	Faculty   string `csv:"faculty"`
	Room      string `csv:"room"`
	Type      string `csv:"type"`
	SessionID string `csv:"session_id"`
}
