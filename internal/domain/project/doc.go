// Package project loads the vizy project served by `vizy serve`.
//
// A project directory contains one definition file, vizy.yaml (or .yml,
// .toml, .json), an optional README.md shown above the form, and whatever
// the task command needs. Example:
//
//	name: hello-world
//	description: Greets someone
//	parameters:
//	  - name: who
//	    type: text
//	    default: world
//	  - name: colors
//	    type: multi-choice
//	    choices: [red, green, blue]
//	    default: [red]
//	task:
//	  command: ["python3", "hello.py"]
//	  timeout: 1m
//
// Submitted values reach the task as VIZY_<NAME> environment variables.
package project
