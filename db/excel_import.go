package db

import (
	"context"
	"io"
	"strings"

	"cohort-tools-api/models"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidSpreadsheet is returned when an upload cannot be read as a workbook
var ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")

// spreadsheet columns, A through I
const (
	colFirstName = iota
	colLastName
	colEmail
	colPhone
	colLinkedinURL
	colLanguage
	colProgram
	colBackground
	colImage
)

func cell(row []string, col int) string {
	if col < len(row) {
		return strings.TrimSpace(row[col])
	}
	return ""
}

// ParseStudentsSheet reads students from the first sheet of a spreadsheet.
// The first row is a header. Rows missing a first or last name are skipped.
func ParseStudentsSheet(file io.Reader) ([]models.Student, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSpreadsheet, "opening spreadsheet: %s", err)
	}
	defer func() {
		grip.Warning(message.WrapError(f.Close(), "closing spreadsheet"))
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.Wrap(ErrInvalidSpreadsheet, "spreadsheet does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSpreadsheet, "reading rows from sheet '%s': %s", sheetName, err)
	}

	students := []models.Student{}
	for i, row := range rows {
		if i == 0 {
			continue
		}

		student := models.Student{
			FirstName:   cell(row, colFirstName),
			LastName:    cell(row, colLastName),
			Email:       cell(row, colEmail),
			Phone:       cell(row, colPhone),
			LinkedinURL: cell(row, colLinkedinURL),
			Language:    cell(row, colLanguage),
			Program:     cell(row, colProgram),
			Background:  cell(row, colBackground),
			Image:       cell(row, colImage),
			Projects:    []interface{}{},
		}
		if student.FirstName == "" || student.LastName == "" {
			grip.Debug(message.Fields{
				"message": "skipping spreadsheet row without a full name",
				"row":     i + 1,
			})
			continue
		}
		students = append(students, student)
	}
	return students, nil
}

// ImportStudentsFromExcel creates a student in the given cohort for every
// usable spreadsheet row and returns how many were created. The first failed
// write stops the import; rows stored before it are kept and counted.
func ImportStudentsFromExcel(ctx context.Context, s Store, file io.Reader, cohortID primitive.ObjectID) (int, error) {
	students, err := ParseStudentsSheet(file)
	if err != nil {
		return 0, err
	}

	imported := 0
	for i := range students {
		cohort := cohortID
		students[i].Cohort = &cohort
		if err := s.CreateStudent(ctx, &students[i]); err != nil {
			grip.Error(message.WrapError(err, message.Fields{
				"message":  "could not import student, stopping import",
				"email":    students[i].Email,
				"cohort":   cohortID.Hex(),
				"imported": imported,
				"rows":     len(students),
			}))
			return imported, errors.Wrapf(err, "importing student '%s'", students[i].Email)
		}
		imported++
	}

	grip.Info(message.Fields{
		"message":  "imported students from spreadsheet",
		"cohort":   cohortID.Hex(),
		"imported": imported,
		"rows":     len(students),
	})
	return imported, nil
}
