package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/rollcall/apps"
	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/user"
	"github.com/trezcool/rollcall/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword       // mockable
	runMigrationFunc = database.RunMigration // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf       *core.Config
	db         *sqlx.DB // postgres only
	usrSvc     *user.Service
	attSvc     *attendance.Service
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME -role ROLE [-class CLASS] - create a user, the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  setactive -email EMAIL [-active=false] - activate or deactivate a user")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose migration command (up, down, status, version...)")
	fmt.Fprintln(cli.out, "  addstudent -class CLASS -roll N -name NAME -parent-email EMAIL - enroll a student")
	fmt.Fprintln(cli.out, "  importstudents -class CLASS -file roster.csv - enroll the students of a CSV roster (roll,name,parent_email)")
	fmt.Fprintln(cli.out, "  report [-date YYYY-MM-DD] - send the daily attendance report now")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's name.")
	addUserRole := addUserCmd.String("role", "", "One of "+strings.Join(user.AllRoles, ", ")+".")
	addUserClass := addUserCmd.String("class", "", "The class of a teacher.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	setActiveCmd := flag.NewFlagSet("setactive", flag.ContinueOnError)
	setActiveEmail := setActiveCmd.String("email", "", "The user's email.")
	setActiveValue := setActiveCmd.Bool("active", true, "Whether the user may log in.")

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ContinueOnError)
	addStudentClass := addStudentCmd.String("class", "", "The student's class.")
	addStudentRoll := addStudentCmd.Int("roll", 0, "The student's roll number in the class.")
	addStudentName := addStudentCmd.String("name", "", "The student's name.")
	addStudentParent := addStudentCmd.String("parent-email", "", "The email of the student's parent.")

	importCmd := flag.NewFlagSet("importstudents", flag.ContinueOnError)
	importClass := importCmd.String("class", "", "The class of the roster.")
	importFile := importCmd.String("file", "", "The CSV roster: a `roll,name,parent_email` header then one student per line.")

	reportCmd := flag.NewFlagSet("report", flag.ContinueOnError)
	reportDate := reportCmd.String("date", "", "The day to report on. Defaults to today.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, setActiveCmd, addStudentCmd, importCmd, reportCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserEmail == "" || *addUserName == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, user.NewUser{
			Name:            *addUserName,
			Email:           *addUserEmail,
			Role:            *addUserRole,
			ClassLabel:      *addUserClass,
			Password:        pwd,
			PasswordConfirm: pwd,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetPasswordEmail, pwd)

	case "setactive":
		if err := setActiveCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *setActiveEmail == "" {
			setActiveCmd.Usage()
			return errHelp
		}
		return cli.setActive(ctx, *setActiveEmail, *setActiveValue)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addStudentClass == "" || *addStudentName == "" || *addStudentParent == "" || *addStudentRoll == 0 {
			addStudentCmd.Usage()
			return errHelp
		}
		return cli.addStudent(ctx, attendance.NewStudent{
			Name:        *addStudentName,
			ClassLabel:  *addStudentClass,
			RollNo:      *addStudentRoll,
			ParentEmail: *addStudentParent,
		})

	case "importstudents":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importClass == "" || *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importStudents(ctx, *importClass, *importFile)

	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.report(ctx, *reportDate)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// checkValid translates validation errors into a single ArgumentError listing every invalid field.
func (cli *commandLine) checkValid(err error) error {
	var fields []string
	switch vErr := errors.Cause(err).(type) {
	case nil:
		return nil
	case validator.ValidationErrors:
		for _, fe := range vErr {
			fields = append(fields, fe.Field()+": "+fe.Translate(cli.translator))
		}
	case *core.ValidationError:
		if len(vErr.Fields) == 0 {
			return apps.NewArgumentError(vErr.Error())
		}
		for _, fe := range vErr.Fields {
			fields = append(fields, fe.Field+": "+fe.Error)
		}
	default:
		return err
	}
	return apps.NewFieldsError(fields...)
}
