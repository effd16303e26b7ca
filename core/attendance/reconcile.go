package attendance

import "sort"

// Reconcile merges a class roster with the day's records. Every student appears exactly once,
// ascending by RollNo; a student without a record is Absent and clears AllSubmitted.
// Records of students outside the roster are ignored.
func Reconcile(students []Student, records []Record) ClassAttendance {
	marked := make(map[string]string, len(records))
	for _, rec := range records {
		marked[rec.StudentID] = rec.Status
	}

	roster := make([]Student, len(students))
	copy(roster, students)
	sort.SliceStable(roster, func(i, j int) bool { return roster[i].RollNo < roster[j].RollNo })

	ca := ClassAttendance{
		Students:     roster,
		Attendance:   make(map[string]string, len(roster)),
		AllSubmitted: true,
	}
	for _, s := range roster {
		if status, ok := marked[s.ID]; ok {
			ca.Attendance[s.ID] = status
		} else {
			ca.Attendance[s.ID] = StatusAbsent
			ca.AllSubmitted = false
		}
	}
	return ca
}

// Entries snapshots ca in roster order.
func (ca ClassAttendance) Entries() []Entry {
	entries := make([]Entry, 0, len(ca.Students))
	for _, s := range ca.Students {
		entries = append(entries, Entry{StudentID: s.ID, Name: s.Name, RollNo: s.RollNo, Status: ca.Attendance[s.ID]})
	}
	return entries
}

// Absentees returns the students marked (or defaulted to) Absent, in roster order.
func (ca ClassAttendance) Absentees() []Student {
	var absent []Student
	for _, s := range ca.Students {
		if ca.Attendance[s.ID] == StatusAbsent {
			absent = append(absent, s)
		}
	}
	return absent
}
