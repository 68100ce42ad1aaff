package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) report(studentID, dir string) error {
	path, err := cli.reportSvc.Generate(context.Background(), studentID, dir)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func (cli *commandLine) reportAll(dir string) error {
	paths, err := cli.reportSvc.GenerateAll(context.Background(), dir)
	for _, path := range paths {
		fmt.Println(path)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%d reports generated\n", len(paths))
	return nil
}

func (cli *commandLine) emailReport(studentID string) error {
	if err := cli.reportSvc.Email(context.Background(), studentID); err != nil {
		return err
	}
	cli.mailSvc.Wait()
	return nil
}
