package pdfsvc

import (
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/ums/core/report"
)

const (
	contentType = "application/pdf"
	font        = "Helvetica"
	lineHeight  = 7.0
	dateLayout  = "02/01/2006 15:04:05"
)

var (
	headerColor = [3]int{41, 128, 185}
	labelColor  = [3]int{240, 240, 240}
	oddRowColor = [3]int{245, 245, 245}
)

// ReportRenderer renders student reports as A4 PDF documents.
type ReportRenderer struct {
	appName string
}

var _ report.Renderer = (*ReportRenderer)(nil)

func NewReportRenderer(appName string) *ReportRenderer {
	return &ReportRenderer{appName: appName}
}

func (ReportRenderer) ContentType() string { return contentType }

func (rr ReportRenderer) Render(w io.Writer, rep report.StudentReport) error {
	doc := newDocument(rr.appName, rep)

	doc.title("STUDENT ACADEMIC REPORT")
	doc.centered("Report Generated: " + rep.GeneratedAt.Format(dateLayout))
	doc.pdf.Ln(lineHeight)

	doc.section("Personal Information")
	stu := rep.Student
	level, major := "", stu.Major
	if stu.Level > 0 {
		level = strconv.Itoa(stu.Level)
	}
	doc.keyValues([][2]string{
		{"Student ID", stu.ID},
		{"Name", stu.Name},
		{"Email", stu.Email},
		{"Level", level},
		{"Major", major},
		{"Department", stu.Department},
		{"Overall Grade", rep.GradeString()},
	})

	doc.section("Registered Courses")
	if len(rep.Courses) == 0 {
		doc.paragraph("No courses registered yet.")
	} else {
		rows := make([][]string, 0, len(rep.Courses))
		for _, c := range rep.Courses {
			rows = append(rows, []string{c.Code, c.Name, c.Level, c.Major, c.LectureTime})
		}
		doc.table([]string{"Course Code", "Course Name", "Level", "Major", "Lecture Time"}, []float64{2, 4, 1, 3, 3}, rows)

		doc.section("Course Performance")
		rows = make([][]string, 0, len(rep.Grades))
		for _, g := range rep.Grades {
			rows = append(rows, []string{g.Name, g.Code, g.PointsString(), g.GradeString()})
		}
		doc.table([]string{"Course Name", "Course Code", "Total Points", "Grade"}, []float64{4, 2, 2, 2}, rows)
	}

	doc.section("Quiz Results Summary")
	if len(rep.Quizzes) == 0 {
		doc.paragraph("No quiz results available yet.")
	} else {
		rows := make([][]string, 0, len(rep.Quizzes))
		for _, ql := range rep.Quizzes {
			rows = append(rows, []string{ql.Title, ql.CourseCode, ql.ScoreString()})
		}
		doc.table([]string{"Quiz Title", "Course Code", "Score"}, []float64{5, 2, 2}, rows)

		summary := [][2]string{
			{"Total Quizzes Taken:", strconv.Itoa(rep.Summary.QuizzesTaken)},
			{"Total Points Earned:", rep.Summary.PointsString()},
		}
		if avg, ok := rep.Summary.Average(); ok {
			summary = append(summary, [2]string{"Average Score:", avg})
		}
		doc.pdf.Ln(lineHeight / 2)
		doc.keyValues(summary)
	}

	doc.pdf.Ln(lineHeight * 2)
	doc.footer("This is an official academic report generated by the University Management System.")

	if err := doc.pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing pdf")
	}
	return nil
}

// document wraps an fpdf document with the building blocks of a report.
type document struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	width float64 // printable width
}

func newDocument(appName string, rep report.StudentReport) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Student Report - "+rep.Student.Name, true)
	pdf.SetAuthor(appName, true)
	pdf.SetCreator(appName, true)
	pdf.SetCreationDate(rep.GeneratedAt)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	return &document{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		width: pageW - left - right,
	}
}

func (d *document) title(txt string) {
	d.pdf.SetFont(font, "B", 18)
	d.pdf.SetTextColor(headerColor[0], headerColor[1], headerColor[2])
	d.pdf.CellFormat(d.width, 12, d.tr(txt), "", 1, "C", false, 0, "")
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *document) centered(txt string) {
	d.pdf.SetFont(font, "I", 10)
	d.pdf.CellFormat(d.width, lineHeight, d.tr(txt), "", 1, "C", false, 0, "")
}

func (d *document) section(txt string) {
	d.pdf.Ln(lineHeight / 2)
	d.pdf.SetFont(font, "B", 14)
	d.pdf.CellFormat(d.width, 10, d.tr(txt), "", 1, "L", false, 0, "")
}

func (d *document) paragraph(txt string) {
	d.pdf.SetFont(font, "I", 11)
	d.pdf.MultiCell(d.width, lineHeight, d.tr(txt), "", "L", false)
}

func (d *document) footer(txt string) {
	d.pdf.SetFont(font, "I", 9)
	d.pdf.SetTextColor(128, 128, 128)
	d.pdf.MultiCell(d.width, 5, d.tr(txt), "", "C", false)
	d.pdf.SetTextColor(0, 0, 0)
}

// keyValues draws a two-column table of bold labels and values.
func (d *document) keyValues(pairs [][2]string) {
	labelW := d.width * 0.35
	for _, kv := range pairs {
		d.pdf.SetFont(font, "B", 11)
		d.pdf.SetFillColor(labelColor[0], labelColor[1], labelColor[2])
		d.pdf.CellFormat(labelW, lineHeight, d.tr(kv[0]), "1", 0, "L", true, 0, "")
		d.pdf.SetFont(font, "", 11)
		d.pdf.CellFormat(d.width-labelW, lineHeight, d.tr(kv[1]), "1", 1, "L", false, 0, "")
	}
}

// table draws a table with a colored header row; weights are the relative widths of the columns.
func (d *document) table(headers []string, weights []float64, rows [][]string) {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	widths := make([]float64, len(weights))
	for i, w := range weights {
		widths[i] = d.width * w / sum
	}

	d.pdf.SetFont(font, "B", 10)
	d.pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	d.pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		d.pdf.CellFormat(widths[i], lineHeight+1, d.tr(h), "1", 0, "C", true, 0, "")
	}
	d.pdf.Ln(-1)

	d.pdf.SetFont(font, "", 10)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetFillColor(oddRowColor[0], oddRowColor[1], oddRowColor[2])
	for r, row := range rows {
		for i, cell := range row {
			d.pdf.CellFormat(widths[i], lineHeight, d.tr(fit(d.pdf, cell, widths[i])), "1", 0, "L", r%2 == 1, 0, "")
		}
		d.pdf.Ln(-1)
	}
}

// fit truncates txt so that it fits in a cell of width w.
func fit(pdf *fpdf.Fpdf, txt string, w float64) string {
	const ellipsis = "..."
	limit := w - 2*pdf.GetCellMargin()
	if pdf.GetStringWidth(txt) <= limit {
		return txt
	}
	runes := []rune(txt)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+ellipsis) > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ellipsis
}
