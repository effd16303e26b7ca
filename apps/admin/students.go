package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/apps"
	"github.com/trezcool/rollcall/core/attendance"
)

var rosterHeader = []string{"roll", "name", "parent_email"}

func (cli *commandLine) addStudent(ctx context.Context, ns attendance.NewStudent) error {
	if err := ns.Validate(cli.validate); err != nil {
		return cli.checkValid(err)
	}
	s, err := cli.attSvc.EnrollStudent(ctx, ns)
	if err != nil {
		return cli.checkValid(errors.Cause(err))
	}
	fmt.Fprintf(cli.out, "%s #%d %s enrolled (id: %s)\n", s.ClassLabel, s.RollNo, s.Name, s.ID)
	return nil
}

// importStudents enrolls every student of the CSV roster at path in classLabel.
// It stops at the first invalid line; the students enrolled before it are kept.
func (cli *commandLine) importStudents(ctx context.Context, classLabel, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening roster")
	}
	defer f.Close()

	students, err := readRoster(f, classLabel)
	if err != nil {
		return err
	}
	for i, ns := range students {
		if err = cli.addStudent(ctx, ns); err != nil {
			return errors.Wrapf(err, "line %d", i+2)
		}
	}
	fmt.Fprintf(cli.out, "%d students enrolled in %s\n", len(students), classLabel)
	return nil
}

func readRoster(r io.Reader, classLabel string) ([]attendance.NewStudent, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(rosterHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apps.NewArgumentError("empty roster")
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading roster header")
	}
	for i, col := range rosterHeader {
		if strings.ToLower(strings.TrimSpace(header[i])) != col {
			return nil, apps.NewArgumentError("roster header must be " + strings.Join(rosterHeader, ","))
		}
	}

	var students []attendance.NewStudent
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading roster")
		}
		roll, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, apps.NewArgumentError(fmt.Sprintf("line %d: invalid roll number %q", line, rec[0]))
		}
		students = append(students, attendance.NewStudent{
			Name:        rec[1],
			ClassLabel:  classLabel,
			RollNo:      roll,
			ParentEmail: rec[2],
		})
	}
	return students, nil
}
