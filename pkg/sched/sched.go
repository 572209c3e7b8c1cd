// Package sched renders cluster batch-job scripts and hands them to the
// site queueing system.
package sched

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Job describes one batch job: queue directives, environment modules and the
// command to run.
type Job struct {
	Name     string
	WorkDir  string
	Stdout   string
	Stderr   string
	Cores    int
	MemGB    int
	Walltime string
	Project  string

	Modules []string
	Command string
}

// Script renders the job as a shell script with grid-engine directives.
func (j *Job) Script() string {
	var sb strings.Builder
	sb.WriteString("#!/bin/bash\n")
	sb.WriteString(fmt.Sprintf("#$ -wd %s\n", j.WorkDir))
	sb.WriteString(fmt.Sprintf("#$ -N %s\n", j.Name))
	sb.WriteString(fmt.Sprintf("#$ -o %s\n", j.Stdout))
	sb.WriteString(fmt.Sprintf("#$ -e %s\n", j.Stderr))
	sb.WriteString(fmt.Sprintf("#$ -pe smp %d\n", j.Cores))
	sb.WriteString(fmt.Sprintf("#$ -l h_vmem=%dG\n", j.MemGB))
	sb.WriteString(fmt.Sprintf("#$ -l h_rt=%s\n", j.Walltime))
	sb.WriteString(fmt.Sprintf("#$ -P %s\n", j.Project))
	sb.WriteString("\n")
	for _, module := range j.Modules {
		sb.WriteString("module load " + module + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString("cd " + j.WorkDir + "\n")
	sb.WriteString(j.Command + "\n")
	return sb.String()
}

// Write writes the rendered script to path, overwriting any previous run.
func (j *Job) Write(path string) error {
	return os.WriteFile(path, []byte(j.Script()), 0755)
}

// Submit hands one script file to the queue submission executable. The
// submission is fire-and-forget: the queue's acceptance is not polled.
func Submit(submitExec, script string) error {
	cmd := exec.Command(submitExec, script)
	slog.Info("Submit", "CMD", cmd)
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stdout
	return cmd.Run()
}
