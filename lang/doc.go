// Package lang defines the declarative configuration language: its block
// vocabulary, the decoded model and the expression facilities shared by
// every evaluation.
//
// A module is a set of files declaring variables, locals, resources and
// outputs:
//
//	variable "instance_count" {
//	  type    = number
//	  default = 2
//
//	  validation {
//	    condition     = var.instance_count > 0
//	    error_message = "At least one instance is required."
//	  }
//	}
//
//	locals {
//	  name_prefix = "web-${var.instance_count}"
//	}
//
//	resource "aws_instance" "web" {
//	  count = var.instance_count
//	  name  = "${local.name_prefix}-${count.index}"
//	}
//
//	output "names" {
//	  value = aws_instance.web[*].name
//	}
//
// The package decodes blocks into their model types and extracts the
// references between them, but performs no evaluation ordering of its own.
// That is the reference graph's job.
package lang
