package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/course"
	"github.com/trezcool/ums/core/enrollment"
	"github.com/trezcool/ums/core/user"
)

type seedUser struct {
	user.User
	pwd string
}

var (
	seedUsers = []seedUser{
		{User: user.User{Name: "Admin User", Email: "admin@ums.edu", Role: user.RoleAdmin}, pwd: "admin123"},
		{User: user.User{Name: "Dr. Omar Farouk", Email: "omar@ums.edu", Role: user.RoleInstructor, Department: user.DeptAI}, pwd: "omar123"},
		{User: user.User{Name: "Dr. Salma Nabil", Email: "salma@ums.edu", Role: user.RoleInstructor, Department: user.DeptCS}, pwd: "salma123"},
		{
			User: user.User{
				Name: "Marwan Wael", Email: "marwan@student.edu", Role: user.RoleStudent,
				Department: user.DeptAI, Level: 2, Major: "Software Engineering", Grade: 97.5,
			},
			pwd: "12345",
		},
		{
			User: user.User{
				Name: "Nour Ahmed", Email: "nour@student.edu", Role: user.RoleStudent,
				Department: user.DeptCS, Level: 1, Major: "Computer Science", Grade: 87.5,
			},
			pwd: "54321",
		},
	}

	// {course, instructor email}
	seedCourses = []struct {
		course.Course
		instructor string
	}{
		{course.Course{Code: "AI101", Name: "Intro to AI", Level: "1", Major: "AI", LectureTime: "Mon 9:00 AM"}, "omar@ums.edu"},
		{course.Course{Code: "CS201", Name: "Data Structures", Level: "2", Major: "CS", LectureTime: "Wed 11:00 AM"}, "salma@ums.edu"},
		{course.Course{Code: "CS301", Name: "Operating Systems", Level: "3", Major: "CS", LectureTime: "Thu 1:00 PM"}, "salma@ums.edu"},
	}

	// {student email: course codes}
	seedEnrollments = map[string][]string{
		"marwan@student.edu": {"AI101", "CS201"},
		"nour@student.edu":   {"CS201"},
	}
)

// seed loads the demo data. Existing users, courses & enrollments are left untouched.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	now := time.Now().UTC()

	ids := make(map[string]string, len(seedUsers)) // {email: id}
	for _, su := range seedUsers {
		usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: su.Email})
		if core.IsNotFound(err) {
			usr = su.User
			usr.IsActive = true
			usr.CreatedAt = now
			usr.UpdatedAt = now
			if err = usr.SetPassword(su.pwd); err != nil {
				return errors.Wrapf(err, "hashing password of %s", su.Email)
			}
			if usr, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
				return errors.Wrapf(err, "creating user %s", su.Email)
			}
			fmt.Printf("user %s added\n", usr.Email)
		} else if err != nil {
			return errors.Wrapf(err, "finding user %s", su.Email)
		}
		ids[usr.Email] = usr.ID
	}

	for _, sc := range seedCourses {
		c := sc.Course
		c.CreatedAt = now
		c.UpdatedAt = now
		if id, ok := ids[sc.instructor]; ok {
			c.InstructorID = &id
		}
		switch _, err := cli.courseRepo.CreateCourse(ctx, c); err {
		case nil:
			fmt.Printf("course %s added\n", c.Code)
		case course.ErrCodeExists: // pass
		default:
			return errors.Wrapf(err, "creating course %s", c.Code)
		}
	}

	for email, codes := range seedEnrollments {
		for _, code := range codes {
			e := enrollment.Enrollment{StudentID: ids[email], CourseCode: code, EnrolledAt: now}
			if _, err := cli.enrollRepo.Enroll(ctx, e); err != nil && err != enrollment.ErrAlreadyEnrolled {
				return errors.Wrapf(err, "enrolling %s in %s", email, code)
			}
		}
	}
	return nil
}
