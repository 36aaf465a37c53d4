package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/crms/internal/app/controllers"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/middleware"
	"github.com/yigit/crms/internal/pkg/websocket"
)

// Controllers groups every HTTP handler the router mounts
type Controllers struct {
	Auth       *controllers.AuthController
	User       *controllers.UserController
	Course     *controllers.CourseController
	Student    *controllers.StudentController
	Syllabus   *controllers.SyllabusController
	Assessment *controllers.AssessmentController
	Grade      *controllers.GradeController
	Attendance *controllers.AttendanceController
	Analytics  *controllers.AnalyticsController
	WebSocket  *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c *Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}, ""))
	})

	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh-token", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	adminOnly := authMiddleware.RolesRequired(models.RoleAdmin)
	overseers := authMiddleware.RolesRequired(models.RoleAdmin, models.RoleDean, models.RoleProgramChair)

	profile := authenticated.Group("/auth")
	{
		profile.GET("/profile", c.Auth.GetProfile)
		profile.PUT("/profile", c.Auth.UpdateProfile)
		profile.PUT("/password", c.Auth.ChangePassword)
	}

	users := authenticated.Group("/users", adminOnly)
	{
		users.GET("", c.User.ListUsers)
		users.GET("/:id", c.User.GetUserByID)
		users.POST("/:id/approve", c.User.ApproveUser)
	}

	courses := authenticated.Group("/courses")
	{
		courses.GET("", c.Course.ListCourses)
		courses.GET("/:id", c.Course.GetCourse)
		courses.POST("", overseers, c.Course.CreateCourse)
		courses.PUT("/:id", overseers, c.Course.UpdateCourse)
		courses.DELETE("/:id", adminOnly, c.Course.DeleteCourse)
	}

	sections := authenticated.Group("/section-courses")
	{
		sections.GET("", c.Course.ListSections)
		sections.GET("/:id", c.Course.GetSection)
		sections.POST("", c.Course.CreateSection)
		sections.PUT("/:id", c.Course.UpdateSection)
		sections.DELETE("/:id", c.Course.DeleteSection)
	}

	students := authenticated.Group("/students")
	{
		students.GET("", c.Student.ListStudents)
		students.GET("/:id", c.Student.GetStudent)
		students.POST("", c.Student.CreateStudent)
		students.PUT("/:id", c.Student.UpdateStudent)
		students.DELETE("/:id", adminOnly, c.Student.DeleteStudent)
	}

	enrollments := authenticated.Group("/enrollments")
	{
		enrollments.POST("", c.Student.Enroll)
		enrollments.GET("/section/:section_course_id", c.Student.ListSectionEnrollments)
		enrollments.GET("/:id", c.Student.GetEnrollment)
		enrollments.PATCH("/:id/status", c.Student.UpdateEnrollmentStatus)
		enrollments.DELETE("/:id", c.Student.Unenroll)
	}

	syllabi := authenticated.Group("/syllabi")
	{
		syllabi.GET("", c.Syllabus.ListSyllabi)
		syllabi.POST("", c.Syllabus.CreateSyllabus)
		syllabi.GET("/:id", c.Syllabus.GetSyllabus)
		syllabi.PUT("/:id", c.Syllabus.UpdateSyllabus)
		syllabi.DELETE("/:id", c.Syllabus.DeleteSyllabus)
		syllabi.POST("/:id/review", overseers, c.Syllabus.ReviewSyllabus)
		syllabi.GET("/:id/ilos", c.Syllabus.ListILOs)
		syllabi.POST("/:id/ilos", c.Syllabus.CreateILO)
	}

	ilos := authenticated.Group("/ilos")
	{
		ilos.PUT("/:id", c.Syllabus.UpdateILO)
		ilos.DELETE("/:id", c.Syllabus.DeleteILO)
	}

	assessments := authenticated.Group("/assessments")
	{
		assessments.POST("", c.Assessment.CreateAssessment)
		assessments.GET("/section/:section_course_id", c.Assessment.ListSectionAssessments)
		assessments.GET("/:id", c.Assessment.GetAssessment)
		assessments.PUT("/:id", c.Assessment.UpdateAssessment)
		assessments.DELETE("/:id", c.Assessment.DeleteAssessment)
		assessments.GET("/:id/sub-assessments", c.Assessment.ListSubAssessments)
	}

	subAssessments := authenticated.Group("/sub-assessments")
	{
		subAssessments.POST("", c.Assessment.CreateSubAssessment)
		subAssessments.GET("/:id", c.Assessment.GetSubAssessment)
		subAssessments.PUT("/:id", c.Assessment.UpdateSubAssessment)
		subAssessments.DELETE("/:id", c.Assessment.DeleteSubAssessment)
	}

	authenticated.PUT("/submissions", c.Grade.GradeSubmission)
	authenticated.GET("/submissions/assessment/:assessment_id", c.Grade.ListSubmissions)
	authenticated.PUT("/sub-submissions", c.Grade.GradeSubSubmission)

	grades := authenticated.Group("/grades")
	{
		grades.GET("/enrollment/:enrollment_id", c.Grade.EnrollmentGrades)
		grades.GET("/section/:section_course_id", c.Grade.SectionGrades)
		grades.GET("/section/:section_course_id/export", c.Grade.ExportSection)
		grades.POST("/section/:section_course_id/export/archive", c.Grade.ArchiveSection)
		grades.GET("/section/:section_course_id/export/archive", c.Grade.DownloadArchive)
	}

	sessions := authenticated.Group("/sessions")
	{
		sessions.POST("", c.Attendance.CreateSession)
		sessions.GET("/section/:section_course_id", c.Attendance.ListSessions)
		sessions.DELETE("/:id", c.Attendance.DeleteSession)
	}

	attendance := authenticated.Group("/attendance")
	{
		attendance.GET("/student/:enrollment_id", c.Attendance.StudentLogs)
		attendance.GET("/session/:session_id", c.Attendance.SessionRoster)
		attendance.POST("/session/:session_id", c.Attendance.MarkSession)
		attendance.GET("/analytics/faculty/:faculty_id", c.Attendance.FacultyAnalytics)
		attendance.GET("/student-analytics/:enrollment_id", c.Attendance.StudentAnalytics)
		attendance.POST("/repair", adminOnly, c.Attendance.Repair)
	}

	analytics := authenticated.Group("/analytics")
	{
		analytics.POST("/refresh", c.Analytics.Refresh)
		analytics.GET("/section/:section_course_id", c.Analytics.GetSection)
	}

	if c.WebSocket != nil {
		authenticated.GET("/ws/sections/:section_course_id/attendance", c.WebSocket.HandleConnection)
	}
}
